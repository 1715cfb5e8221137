package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pcbuilds/internal/database"
	"pcbuilds/internal/logger"
	"pcbuilds/internal/models"
	"pcbuilds/internal/repository"

	"github.com/shopspring/decimal"
)

// Stats counts what an Engine wrote.
type Stats struct {
	CategoriesCreated int
	PartsCreated      int
	PartsUpdated      int
	BuildsCreated     int
	BuildsUpdated     int
	LinksWritten      int
}

// PartInput is a part candidate. Blank Brand and URL and an invalid Price
// mean "not given" and never overwrite stored values.
type PartInput struct {
	Name       string
	CategoryID *int64
	Brand      string
	URL        string
	Price      decimal.NullDecimal
}

type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
)

// Engine finds or creates catalog rows. Bind one to the transaction of a
// single import; the category cache is only valid inside it.
type Engine struct {
	categories *repository.CategoryRepository
	parts      *repository.PartRepository
	builds     *repository.BuildRepository
	log        *logger.Logger

	cache map[string]*models.Category
	stats Stats
}

func NewEngine(q database.Querier, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		categories: repository.NewCategoryRepository(q),
		parts:      repository.NewPartRepository(q),
		builds:     repository.NewBuildRepository(q),
		log:        log,
		cache:      make(map[string]*models.Category),
	}
}

func (e *Engine) Stats() Stats { return e.stats }

func categoryKey(kind models.CategoryKind, name string) string {
	return string(kind) + "\x00" + models.FoldName(name)
}

// GetOrCreateCategory resolves a category by trimmed name, ignoring case.
// A new category keeps the spelling it was first seen with.
func (e *Engine) GetOrCreateCategory(ctx context.Context, kind models.CategoryKind, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if kind == "" {
		kind = models.KindPart
	}
	key := categoryKey(kind, name)
	if c, ok := e.cache[key]; ok {
		return c, nil
	}

	c, err := e.categories.GetByName(ctx, kind, name)
	if errors.Is(err, sql.ErrNoRows) {
		c = &models.Category{Name: name, Kind: kind}
		created, cerr := e.categories.CreateIfAbsent(ctx, c)
		switch {
		case cerr != nil:
			return nil, fmt.Errorf("create category %q: %w", name, cerr)
		case created:
			err = nil
			e.stats.CategoriesCreated++
			e.log.Debug("category created", "kind", kind, "name", name, "id", c.ID)
		default:
			c, err = e.categories.GetByName(ctx, kind, name)
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("category %q: %w", name, ErrConflict)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("get category %q: %w", name, err)
	}

	e.cache[key] = c
	return c, nil
}

// UpsertPart resolves a part by (name, category), or by name among
// uncategorized parts. Existing parts only take fields that are given and
// differ from what is stored.
func (e *Engine) UpsertPart(ctx context.Context, in PartInput) (*models.Part, Outcome, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, Unchanged, ErrMissingName
	}
	in.Brand = strings.TrimSpace(in.Brand)
	in.URL = strings.TrimSpace(in.URL)

	p, err := e.parts.Find(ctx, in.Name, in.CategoryID)
	if errors.Is(err, sql.ErrNoRows) {
		p = &models.Part{Name: in.Name, CategoryID: in.CategoryID, Brand: in.Brand, URL: in.URL, Price: in.Price}
		created, cerr := e.parts.CreateIfAbsent(ctx, p)
		if cerr != nil {
			return nil, Unchanged, fmt.Errorf("create part %q: %w", in.Name, cerr)
		}
		if created {
			e.stats.PartsCreated++
			return p, Created, nil
		}
		p, err = e.parts.Find(ctx, in.Name, in.CategoryID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, Unchanged, fmt.Errorf("part %q: %w", in.Name, ErrConflict)
		}
	}
	if err != nil {
		return nil, Unchanged, fmt.Errorf("get part %q: %w", in.Name, err)
	}

	if !mergePart(p, in) {
		return p, Unchanged, nil
	}
	if err := e.parts.Update(ctx, p); err != nil {
		return nil, Unchanged, fmt.Errorf("update part %d: %w", p.ID, err)
	}
	e.stats.PartsUpdated++
	return p, Updated, nil
}

// mergePart copies given, differing fields of in onto p and reports
// whether anything changed.
func mergePart(p *models.Part, in PartInput) bool {
	changed := false
	if in.Brand != "" && in.Brand != p.Brand {
		p.Brand = in.Brand
		changed = true
	}
	if in.URL != "" && in.URL != p.URL {
		p.URL = in.URL
		changed = true
	}
	if in.Price.Valid && (!p.Price.Valid || !p.Price.Decimal.Equal(in.Price.Decimal)) {
		p.Price = in.Price
		changed = true
	}
	return changed
}

// LinkPart writes the (build, part) line. An existing line takes the new
// quantity and override.
func (e *Engine) LinkPart(ctx context.Context, buildID, partID int64, quantity int, override decimal.NullDecimal) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	err := e.builds.UpsertPart(ctx, models.BuildPart{
		BuildID:       buildID,
		PartID:        partID,
		Quantity:      quantity,
		PriceOverride: override,
	})
	if err != nil {
		return fmt.Errorf("link part %d to build %d: %w", partID, buildID, err)
	}
	e.stats.LinksWritten++
	return nil
}

// ResolveBuild finds the build named like draft or creates it. An
// existing build gets the imported fields of draft but keeps its status,
// and a blank price or image in draft never clears the stored one.
// The bool reports whether the build was created.
func (e *Engine) ResolveBuild(ctx context.Context, draft models.Build) (*models.Build, bool, error) {
	draft.Name = strings.TrimSpace(draft.Name)
	if draft.Name == "" {
		return nil, false, ErrMissingName
	}

	b, err := e.builds.GetByName(ctx, draft.Name)
	if errors.Is(err, sql.ErrNoRows) {
		b = &draft
		if b.Status == "" {
			b.Status = models.StatusDraft
		}
		created, cerr := e.builds.CreateIfAbsent(ctx, b)
		if cerr != nil {
			return nil, false, fmt.Errorf("create build %q: %w", draft.Name, cerr)
		}
		if created {
			e.stats.BuildsCreated++
			return b, true, nil
		}
		b, err = e.builds.GetByName(ctx, draft.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("build %q: %w", draft.Name, ErrConflict)
		}
	}
	if err != nil {
		return nil, false, fmt.Errorf("get build %q: %w", draft.Name, err)
	}

	if draft.Price.Valid {
		b.Price = draft.Price
	}
	b.TierID = draft.TierID
	b.FamilyID = draft.FamilyID
	if draft.ImageURL != "" {
		b.ImageURL = draft.ImageURL
	}
	if err := e.builds.UpdateImported(ctx, b); err != nil {
		return nil, false, fmt.Errorf("update build %d: %w", b.ID, err)
	}
	e.stats.BuildsUpdated++
	return b, false, nil
}

// ReplaceBuildParts drops every line of the build so the caller can
// rebuild them from scratch.
func (e *Engine) ReplaceBuildParts(ctx context.Context, buildID int64) (int64, error) {
	n, err := e.builds.DeleteParts(ctx, buildID)
	if err != nil {
		return 0, fmt.Errorf("clear parts of build %d: %w", buildID, err)
	}
	return n, nil
}
