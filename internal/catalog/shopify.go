package catalog

import (
	"context"
	"strings"
	"unicode"

	"pcbuilds/internal/logger"
	"pcbuilds/internal/models"

	"github.com/shopspring/decimal"
)

// ShopifyStats are the counters of a Shopify product export import.
type ShopifyStats struct {
	RowsSeen          int `json:"rows_seen"`
	BuildsCreated     int `json:"builds_created"`
	BuildsUpdated     int `json:"builds_updated"`
	PartsCreated      int `json:"parts_created"`
	LinksCreated      int `json:"links_created"`
	CategoriesCreated int `json:"categories_created"`
	ProductsSkipped   int `json:"products_skipped"`
}

var (
	tierTags   = []string{"Economy", "Standard", "High-End", "Premium"}
	familyTags = []string{
		"Intel Core i5", "Intel Core i7", "Intel Core i9", "Intel Xeon",
		"AMD Ryzen 5", "AMD Ryzen 7", "AMD Ryzen 9",
	}
)

// normalizeTag drops trademark glyphs and punctuation and lowercases, so
// "Intel® Core™ i7" and "intel core i7" compare equal.
func normalizeTag(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func matchTag(tag string, options []string) string {
	norm := normalizeTag(tag)
	for _, opt := range options {
		if normalizeTag(opt) == norm {
			return opt
		}
	}
	return ""
}

// classifyTags returns the first tier and family named in a comma
// separated Tags cell.
func classifyTags(tags string) (tier, family string) {
	for _, tag := range strings.Split(tags, ",") {
		if tier == "" {
			tier = matchTag(tag, tierTags)
		}
		if family == "" {
			family = matchTag(tag, familyTags)
		}
		if tier != "" && family != "" {
			break
		}
	}
	return tier, family
}

type productGroup struct {
	handle string
	rows   []Row
}

// groupByHandle keeps handles in first-seen order. Rows without a handle
// belong to no product.
func groupByHandle(rows []Row) []productGroup {
	var groups []productGroup
	index := make(map[string]int)
	for _, row := range rows {
		handle := PickField(row, "Handle")
		if handle == "" {
			continue
		}
		i, ok := index[handle]
		if !ok {
			i = len(groups)
			index[handle] = i
			groups = append(groups, productGroup{handle: handle})
		}
		groups[i].rows = append(groups[i].rows, row)
	}
	return groups
}

// skipReason reports why a product's canonical row cannot become a build.
func skipReason(first Row) string {
	title := PickField(first, "Title")
	body := PickField(first, shopifyMarker)
	switch {
	case title == "":
		return "missing title"
	case body == "":
		return "missing description"
	case !strings.Contains(body, "<"):
		return "description is not html"
	}
	if status := PickField(first, "Status"); status != "" && !strings.EqualFold(status, "active") {
		return "status " + strings.ToLower(status)
	}
	return ""
}

func firstImage(rows []Row) string {
	for _, row := range rows {
		if img := PickField(row, "Image Src", "Variant Image"); img != "" {
			return img
		}
	}
	return ""
}

type partCount struct {
	name string
	n    int
}

// collapse counts repeated part names and keeps first-seen order.
func collapse(names []string) []partCount {
	var out []partCount
	index := make(map[string]int)
	for _, name := range names {
		if i, ok := index[name]; ok {
			out[i].n++
			continue
		}
		index[name] = len(out)
		out = append(out, partCount{name: name, n: 1})
	}
	return out
}

func importShopify(ctx context.Context, eng *Engine, table *Table, log *logger.Logger) (*ShopifyStats, error) {
	stats := &ShopifyStats{RowsSeen: len(table.Rows)}

	for _, g := range groupByHandle(table.Rows) {
		first := g.rows[0]
		if reason := skipReason(first); reason != "" {
			stats.ProductsSkipped++
			log.Debug("product skipped", "handle", g.handle, "reason", reason)
			continue
		}

		draft := models.Build{
			Name:     PickField(first, "Title"),
			Status:   models.StatusDraft,
			Price:    NormalizePrice(PickField(first, "Variant Price")),
			ImageURL: firstImage(g.rows),
		}
		tier, family := classifyTags(PickField(first, "Tags"))
		if tier != "" {
			c, err := eng.GetOrCreateCategory(ctx, models.KindTier, tier)
			if err != nil {
				return nil, err
			}
			draft.TierID = &c.ID
		}
		if family != "" {
			c, err := eng.GetOrCreateCategory(ctx, models.KindFamily, family)
			if err != nil {
				return nil, err
			}
			draft.FamilyID = &c.ID
		}

		build, created, err := eng.ResolveBuild(ctx, draft)
		if err != nil {
			return nil, err
		}
		if created {
			stats.BuildsCreated++
		} else {
			stats.BuildsUpdated++
		}

		if _, err := eng.ReplaceBuildParts(ctx, build.ID); err != nil {
			return nil, err
		}

		spec := ExtractSpecTable(PickField(first, shopifyMarker))
		for _, sg := range spec {
			cat, err := eng.GetOrCreateCategory(ctx, models.KindPart, sg.Category)
			if err != nil {
				return nil, err
			}
			for _, pc := range collapse(sg.Parts) {
				part, _, err := eng.UpsertPart(ctx, PartInput{Name: pc.name, CategoryID: &cat.ID})
				if err != nil {
					return nil, err
				}
				if err := eng.LinkPart(ctx, build.ID, part.ID, pc.n, decimal.NullDecimal{}); err != nil {
					return nil, err
				}
				stats.LinksCreated += pc.n
			}
		}
		log.Debug("build imported", "handle", g.handle, "build_id", build.ID, "created", created, "lines", spec.Lines())
	}

	s := eng.Stats()
	stats.PartsCreated = s.PartsCreated
	stats.CategoriesCreated = s.CategoriesCreated
	return stats, nil
}
