package catalog

import (
	"context"

	"pcbuilds/internal/logger"
	"pcbuilds/internal/models"
)

// SimpleStats are the counters of a one-row-per-part import.
type SimpleStats struct {
	PartsAdded        int `json:"parts_added"`
	PartsUpdated      int `json:"parts_updated"`
	CategoriesCreated int `json:"categories_created"`
	RowsSkipped       int `json:"rows_skipped"`
}

// Header synonyms, in precedence order.
var (
	nameFields     = []string{"Product Name", "Name", "Part", "Part Name", "Title", "Product"}
	categoryFields = []string{"Category", "Category Name", "Type", "Group"}
	brandFields    = []string{"Brand", "Manufacturer", "Vendor", "Make"}
	urlFields      = []string{"URL", "Link", "Product URL", "Url"}
	priceFields    = []string{"Price", "Unit Price", "Cost", "Variant Price"}
)

func importSimple(ctx context.Context, eng *Engine, table *Table, log *logger.Logger) (*SimpleStats, error) {
	stats := &SimpleStats{}

	for i, row := range table.Rows {
		name := PickField(row, nameFields...)
		if name == "" {
			stats.RowsSkipped++
			log.Debug("row skipped", "row", i+2, "reason", "missing name")
			continue
		}

		in := PartInput{
			Name:  name,
			Brand: PickField(row, brandFields...),
			URL:   PickField(row, urlFields...),
			Price: NormalizePrice(PickField(row, priceFields...)),
		}
		if catName := PickField(row, categoryFields...); catName != "" {
			cat, err := eng.GetOrCreateCategory(ctx, models.KindPart, catName)
			if err != nil {
				return nil, err
			}
			in.CategoryID = &cat.ID
		}

		_, outcome, err := eng.UpsertPart(ctx, in)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case Created:
			stats.PartsAdded++
		case Updated:
			stats.PartsUpdated++
		}
	}

	stats.CategoriesCreated = eng.Stats().CategoriesCreated
	return stats, nil
}
