package catalog

import (
	"context"
	"errors"
	"testing"

	"pcbuilds/internal/database"
	"pcbuilds/internal/database/dbtest"
	"pcbuilds/internal/models"
	"pcbuilds/internal/repository"

	"github.com/shopspring/decimal"
)

func newEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return NewEngine(db, nil), db
}

func TestGetOrCreateCategoryFoldsCase(t *testing.T) {
	ctx := context.Background()
	eng, db := newEngine(t)

	first, err := eng.GetOrCreateCategory(ctx, models.KindPart, "  Graphics Card ")
	if err != nil {
		t.Fatalf("GetOrCreateCategory: %v", err)
	}
	if first.Name != "Graphics Card" {
		t.Fatalf("Name = %q, want trimmed", first.Name)
	}

	// A fresh engine bypasses the cache and must hit the database.
	second, err := NewEngine(db, nil).GetOrCreateCategory(ctx, models.KindPart, "graphics card")
	if err != nil {
		t.Fatalf("GetOrCreateCategory: %v", err)
	}
	if second.ID != first.ID || second.Name != "Graphics Card" {
		t.Fatalf("got %+v, want the first category %+v", second, first)
	}
	if eng.Stats().CategoriesCreated != 1 {
		t.Fatalf("CategoriesCreated = %d, want 1", eng.Stats().CategoriesCreated)
	}
}

func TestGetOrCreateCategoryKindsAreSeparate(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)

	part, err := eng.GetOrCreateCategory(ctx, models.KindPart, "Premium")
	if err != nil {
		t.Fatal(err)
	}
	tier, err := eng.GetOrCreateCategory(ctx, models.KindTier, "Premium")
	if err != nil {
		t.Fatal(err)
	}
	if part.ID == tier.ID {
		t.Fatal("part and tier categories with the same name must be distinct")
	}
}

func TestGetOrCreateCategoryRejectsBlank(t *testing.T) {
	eng, _ := newEngine(t)
	if _, err := eng.GetOrCreateCategory(context.Background(), models.KindPart, "   "); !errors.Is(err, ErrMissingName) {
		t.Fatalf("err = %v, want ErrMissingName", err)
	}
}

func TestUpsertPartIdentity(t *testing.T) {
	ctx := context.Background()
	eng, db := newEngine(t)

	cpu, _ := eng.GetOrCreateCategory(ctx, models.KindPart, "CPU")
	other, _ := eng.GetOrCreateCategory(ctx, models.KindPart, "Bundle")

	a, outcome, err := eng.UpsertPart(ctx, PartInput{Name: "Ryzen 5 7600", CategoryID: &cpu.ID})
	if err != nil || outcome != Created {
		t.Fatalf("first upsert: outcome %v, err %v", outcome, err)
	}
	b, outcome, err := eng.UpsertPart(ctx, PartInput{Name: "Ryzen 5 7600", CategoryID: &cpu.ID})
	if err != nil || outcome != Unchanged || b.ID != a.ID {
		t.Fatalf("second upsert: id %d outcome %v err %v, want id %d unchanged", b.ID, outcome, err, a.ID)
	}
	c, outcome, err := eng.UpsertPart(ctx, PartInput{Name: "Ryzen 5 7600", CategoryID: &other.ID})
	if err != nil || outcome != Created || c.ID == a.ID {
		t.Fatalf("other category: outcome %v err %v", outcome, err)
	}
	d, outcome, err := eng.UpsertPart(ctx, PartInput{Name: "Ryzen 5 7600"})
	if err != nil || outcome != Created {
		t.Fatalf("uncategorized: outcome %v err %v", outcome, err)
	}
	e, outcome, err := eng.UpsertPart(ctx, PartInput{Name: "Ryzen 5 7600"})
	if err != nil || outcome != Unchanged || e.ID != d.ID {
		t.Fatalf("uncategorized again: outcome %v err %v", outcome, err)
	}

	n, err := repository.NewPartRepository(db).Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("part count = %d, want 3", n)
	}
}

func TestUpsertPartNeverBlanksFields(t *testing.T) {
	ctx := context.Background()
	eng, _ := newEngine(t)

	_, _, err := eng.UpsertPart(ctx, PartInput{
		Name:  "RM850x",
		Brand: "Corsair",
		URL:   "https://example.com/rm850x",
		Price: NormalizePrice("129.99"),
	})
	if err != nil {
		t.Fatal(err)
	}

	p, outcome, err := eng.UpsertPart(ctx, PartInput{Name: "RM850x", Brand: " ", Price: NormalizePrice("")})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Unchanged {
		t.Fatalf("outcome = %v, want Unchanged", outcome)
	}
	if p.Brand != "Corsair" || p.URL == "" || !p.Price.Valid {
		t.Fatalf("stored fields were blanked: %+v", p)
	}

	p, outcome, err = eng.UpsertPart(ctx, PartInput{Name: "RM850x", Price: NormalizePrice("119.99")})
	if err != nil {
		t.Fatal(err)
	}
	if outcome != Updated || !p.Price.Decimal.Equal(decimal.RequireFromString("119.99")) {
		t.Fatalf("outcome %v price %v, want Updated 119.99", outcome, p.Price)
	}
	if p.Brand != "Corsair" {
		t.Fatalf("Brand = %q, want Corsair", p.Brand)
	}
	if s := eng.Stats(); s.PartsCreated != 1 || s.PartsUpdated != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestLinkPart(t *testing.T) {
	ctx := context.Background()
	eng, db := newEngine(t)

	build, created, err := eng.ResolveBuild(ctx, models.Build{Name: "Gamer X"})
	if err != nil || !created {
		t.Fatalf("ResolveBuild: created %v err %v", created, err)
	}
	if build.Status != models.StatusDraft {
		t.Fatalf("Status = %q, want draft", build.Status)
	}
	part, _, err := eng.UpsertPart(ctx, PartInput{Name: "Noctua NF-A12"})
	if err != nil {
		t.Fatal(err)
	}

	if err := eng.LinkPart(ctx, build.ID, part.ID, 0, decimal.NullDecimal{}); !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("LinkPart(0) err = %v, want ErrInvalidQuantity", err)
	}
	if err := eng.LinkPart(ctx, build.ID, part.ID, 1, decimal.NullDecimal{}); err != nil {
		t.Fatal(err)
	}
	if err := eng.LinkPart(ctx, build.ID, part.ID, 3, NormalizePrice("19.50")); err != nil {
		t.Fatal(err)
	}

	lines, err := repository.NewBuildRepository(db).Lines(ctx, build.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want 1", len(lines))
	}
	if lines[0].Quantity != 3 || !lines[0].PriceOverride.Valid {
		t.Fatalf("line = %+v, want quantity 3 with override", lines[0].BuildPart)
	}
}

func TestResolveBuildUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	eng, db := newEngine(t)

	first, _, err := eng.ResolveBuild(ctx, models.Build{Name: "Office Pro", ImageURL: "https://cdn/a.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if err := repository.NewBuildRepository(db).UpdateStatus(ctx, first.ID, models.StatusPublished); err != nil {
		t.Fatal(err)
	}

	second, created, err := eng.ResolveBuild(ctx, models.Build{Name: "Office Pro", Price: NormalizePrice("899")})
	if err != nil {
		t.Fatal(err)
	}
	if created || second.ID != first.ID {
		t.Fatalf("created %v id %d, want update of %d", created, second.ID, first.ID)
	}
	if second.Status != models.StatusPublished {
		t.Fatalf("Status = %q, re-import must keep it", second.Status)
	}
	if second.ImageURL != "https://cdn/a.jpg" {
		t.Fatalf("ImageURL = %q, want the stored image kept", second.ImageURL)
	}

	third, _, err := eng.ResolveBuild(ctx, models.Build{Name: "Office Pro"})
	if err != nil {
		t.Fatal(err)
	}
	stored, err := repository.NewBuildRepository(db).GetByID(ctx, third.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Price.Valid || !stored.Price.Decimal.Equal(decimal.RequireFromString("899")) {
		t.Fatalf("Price = %v, want the stored 899 kept when the export has none", stored.Price)
	}
}
