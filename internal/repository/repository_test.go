package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"pcbuilds/internal/database"
	"pcbuilds/internal/database/dbtest"
	"pcbuilds/internal/models"

	"github.com/shopspring/decimal"
)

type fixture struct {
	db         *database.DB
	categories *CategoryRepository
	parts      *PartRepository
	builds     *BuildRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	return &fixture{
		db:         db,
		categories: NewCategoryRepository(db),
		parts:      NewPartRepository(db),
		builds:     NewBuildRepository(db),
	}
}

func price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func (f *fixture) part(t *testing.T, name string, categoryID *int64, p decimal.NullDecimal) *models.Part {
	t.Helper()
	part := &models.Part{Name: name, CategoryID: categoryID, Price: p}
	created, err := f.parts.CreateIfAbsent(context.Background(), part)
	if err != nil || !created {
		t.Fatalf("create part %q: created %v err %v", name, created, err)
	}
	return part
}

func (f *fixture) build(t *testing.T, name string) *models.Build {
	t.Helper()
	b := &models.Build{Name: name}
	if err := f.builds.Create(context.Background(), b); err != nil {
		t.Fatalf("create build %q: %v", name, err)
	}
	return b
}

func TestCategoryCreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := &models.Category{Name: "Memory"}
	created, err := f.categories.CreateIfAbsent(ctx, c)
	if err != nil || !created || c.ID == 0 {
		t.Fatalf("first create: created %v err %v id %d", created, err, c.ID)
	}
	dup := &models.Category{Name: "MEMORY"}
	created, err = f.categories.CreateIfAbsent(ctx, dup)
	if err != nil || created {
		t.Fatalf("duplicate create: created %v err %v", created, err)
	}
	if err := f.categories.Create(ctx, &models.Category{Name: "memory"}); !database.IsUniqueViolation(err) {
		t.Fatalf("Create duplicate err = %v, want unique violation", err)
	}
}

func TestPartGetByIDJoinsCategory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := &models.Category{Name: "Storage"}
	if _, err := f.categories.CreateIfAbsent(ctx, c); err != nil {
		t.Fatal(err)
	}
	withCat := f.part(t, "WD SN850X", &c.ID, price("129"))
	loose := f.part(t, "Thermal paste", nil, decimal.NullDecimal{})

	got, err := f.parts.GetByID(ctx, withCat.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Category == nil || got.Category.ID != c.ID || got.Category.Name != "Storage" || got.Category.Kind != models.KindPart {
		t.Errorf("category = %+v", got.Category)
	}

	got, err = f.parts.GetByID(ctx, loose.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Category != nil || got.CategoryID != nil {
		t.Errorf("uncategorized part has category %+v", got.Category)
	}

	if _, err := f.parts.GetByID(ctx, 999999); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing part err = %v, want sql.ErrNoRows", err)
	}
}

func TestPartDeleteRemovesBuildLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.part(t, "RTX 4070", nil, price("599"))
	b := f.build(t, "Gamer")
	if err := f.builds.UpsertPart(ctx, models.BuildPart{BuildID: b.ID, PartID: p.ID, Quantity: 1}); err != nil {
		t.Fatal(err)
	}

	err := f.db.InTx(ctx, func(q database.Querier) error {
		return NewPartRepository(q).Delete(ctx, p.ID)
	})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}

	var n int
	if err := f.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM build_parts`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("build_parts rows = %d, want 0", n)
	}
	if err := f.parts.Delete(ctx, p.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second delete err = %v, want sql.ErrNoRows", err)
	}
}

func TestBuildDeleteRemovesLines(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	p := f.part(t, "B650M", nil, price("149"))
	b := f.build(t, "Office")
	if err := f.builds.UpsertPart(ctx, models.BuildPart{BuildID: b.ID, PartID: p.ID, Quantity: 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.builds.Delete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	lines, err := f.builds.Lines(ctx, b.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 0 {
		t.Fatalf("lines = %d, want 0", len(lines))
	}
	if _, err := f.parts.GetByID(ctx, p.ID); err != nil {
		t.Fatalf("part must survive its build: %v", err)
	}
}

func TestCategoryDeleteUncategorizesParts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := &models.Category{Name: "Cooler"}
	if err := f.categories.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	p := f.part(t, "NH-D15", &c.ID, decimal.NullDecimal{})

	if err := f.categories.Delete(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	got, err := f.parts.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.CategoryID != nil {
		t.Fatalf("CategoryID = %d, want nil", *got.CategoryID)
	}
}

func TestCategoryDeleteCollision(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	c := &models.Category{Name: "Fans"}
	if err := f.categories.Create(ctx, c); err != nil {
		t.Fatal(err)
	}
	f.part(t, "P12", &c.ID, decimal.NullDecimal{})
	f.part(t, "P12", nil, decimal.NullDecimal{})

	err := f.db.InTx(ctx, func(q database.Querier) error {
		return NewCategoryRepository(q).Delete(ctx, c.ID)
	})
	if !database.IsUniqueViolation(err) {
		t.Fatalf("err = %v, want unique violation", err)
	}
	if _, err := f.categories.GetByID(ctx, c.ID); err != nil {
		t.Fatalf("category must survive the failed delete: %v", err)
	}
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	cpu := f.part(t, "i5-14400", nil, price("200"))
	ram := f.part(t, "16GB", nil, price("50"))
	mystery := f.part(t, "Mystery Box", nil, decimal.NullDecimal{})

	priced := f.build(t, "Priced")
	unpriced := f.build(t, "Unpriced")
	lines := []models.BuildPart{
		{BuildID: priced.ID, PartID: cpu.ID, Quantity: 1},
		{BuildID: priced.ID, PartID: ram.ID, Quantity: 2, PriceOverride: price("45")},
		{BuildID: unpriced.ID, PartID: cpu.ID, Quantity: 1},
		{BuildID: unpriced.ID, PartID: mystery.ID, Quantity: 1},
	}
	for _, bp := range lines {
		if err := f.builds.UpsertPart(ctx, bp); err != nil {
			t.Fatal(err)
		}
	}

	totals, err := f.builds.Totals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got := totals[priced.ID]; !got.Valid || !got.Decimal.Equal(decimal.RequireFromString("290")) {
		t.Fatalf("priced total = %v, want 290", got)
	}
	if got := totals[unpriced.ID]; got.Valid {
		t.Fatalf("unpriced total = %v, want absent", got.Decimal)
	}
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsRepository(dbtest.Open(t))

	if !s.GetBool(ctx, SettingAutoImport, true) {
		t.Fatal("missing key should return the default")
	}
	if err := s.SetBool(ctx, SettingAutoImport, false); err != nil {
		t.Fatal(err)
	}
	if s.GetBool(ctx, SettingAutoImport, true) {
		t.Fatal("GetBool = true after SetBool(false)")
	}
	if !s.GetTime(ctx, SettingLastImportAt).IsZero() {
		t.Fatal("missing time should be zero")
	}
}
