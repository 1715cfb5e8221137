//go:generate templ generate

package templates

import (
	"context"
	"strconv"
	"time"

	"pcbuilds/internal/i18n"
	"pcbuilds/internal/models"

	"github.com/shopspring/decimal"
)

type BuildsData struct {
	Builds []models.Build
	Totals map[int64]decimal.NullDecimal
	Status models.BuildStatus
}

type BuildDetailData struct {
	Build models.Build
	Parts []models.Part
}

type PartsData struct {
	Parts      []models.Part
	Categories []models.Category
	CategoryID int64
}

type ImportData struct {
	MaxUploadMB    int64
	ScannerEnabled bool
	ImportDir      string
	Scan           models.ScanStatus
	AutoImport     bool
	LastImportAt   time.Time
}

var buildStatuses = []models.BuildStatus{models.StatusDraft, models.StatusApproved, models.StatusPublished}

var categoryKinds = []models.CategoryKind{models.KindPart, models.KindTier, models.KindFamily}

// partFields are the inputs of the create-or-update part form.
var partFields = []struct{ Name, Label string }{
	{"name", "parts.name"},
	{"category", "parts.category"},
	{"brand", "parts.brand"},
	{"url", "parts.url"},
	{"price", "parts.price"},
}

func id(n int64) string { return strconv.FormatInt(n, 10) }

// Price formats an optional amount with two decimals.
func Price(ctx context.Context, d decimal.NullDecimal) string {
	if !d.Valid {
		return i18n.T(ctx, "common.no_price")
	}
	return d.Decimal.StringFixed(2)
}

// buildTotal treats a build without priced lines as costing zero.
func buildTotal(data BuildsData, buildID int64) decimal.NullDecimal {
	if total, ok := data.Totals[buildID]; ok {
		return total
	}
	return decimal.NewNullDecimal(decimal.Zero)
}

func partLabel(p models.Part) string {
	if p.Category != nil {
		return p.Category.Name + ": " + p.Name
	}
	return p.Name
}

func lastImport(ctx context.Context, at time.Time) string {
	if at.IsZero() {
		return i18n.T(ctx, "import.never")
	}
	return at.Local().Format("2006-01-02 15:04")
}

func resultClass(failed bool) string {
	if failed {
		return "result error"
	}
	return "result"
}
