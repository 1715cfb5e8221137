package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CategoryKind string

const (
	KindPart   CategoryKind = "part"
	KindTier   CategoryKind = "tier"
	KindFamily CategoryKind = "family"
)

func (k CategoryKind) Valid() bool {
	switch k {
	case KindPart, KindTier, KindFamily:
		return true
	}
	return false
}

type Category struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Kind      CategoryKind `json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
}

type CategoryWithCount struct {
	Category
	PartCount int `json:"part_count"`
}

type Part struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Brand      string              `json:"brand"`
	URL        string              `json:"url"`
	Price      decimal.NullDecimal `json:"price"`
	CategoryID *int64              `json:"category_id"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`

	// Joined fields
	Category *Category `json:"category,omitempty"`
}

type BuildStatus string

const (
	StatusDraft     BuildStatus = "draft"
	StatusApproved  BuildStatus = "approved"
	StatusPublished BuildStatus = "published"
)

func (s BuildStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusPublished:
		return true
	}
	return false
}

type Build struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Status    BuildStatus         `json:"status"`
	Price     decimal.NullDecimal `json:"price"`
	TierID    *int64              `json:"tier_id"`
	FamilyID  *int64              `json:"family_id"`
	ImageURL  string              `json:"image_url"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`

	// Joined fields
	Tier   *Category   `json:"tier,omitempty"`
	Family *Category   `json:"family,omitempty"`
	Lines  []BuildLine `json:"lines,omitempty"`
}

// Total is the computed aggregate price of the loaded lines.
func (b *Build) Total() decimal.NullDecimal {
	return TotalPrice(b.Lines)
}

type BuildPart struct {
	BuildID       int64               `json:"build_id"`
	PartID        int64               `json:"part_id"`
	Quantity      int                 `json:"quantity"`
	PriceOverride decimal.NullDecimal `json:"price_override"`
}

// BuildLine is a BuildPart joined with its part.
type BuildLine struct {
	BuildPart
	Part Part `json:"part"`
}

// UnitPrice is the override when set, otherwise the part's base price.
func (l BuildLine) UnitPrice() decimal.NullDecimal {
	if l.PriceOverride.Valid {
		return l.PriceOverride
	}
	return l.Part.Price
}

func (l BuildLine) LineTotal() decimal.NullDecimal {
	unit := l.UnitPrice()
	if !unit.Valid {
		return unit
	}
	return decimal.NewNullDecimal(unit.Decimal.Mul(decimal.NewFromInt(int64(l.Quantity))))
}

// TotalPrice sums line totals. The total is absent when any line has no
// price, since an unknown component price makes the sum unknown too.
func TotalPrice(lines []BuildLine) decimal.NullDecimal {
	sum := decimal.Zero
	for _, l := range lines {
		lt := l.LineTotal()
		if !lt.Valid {
			return decimal.NullDecimal{}
		}
		sum = sum.Add(lt.Decimal)
	}
	return decimal.NewNullDecimal(sum)
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type ScanStatus struct {
	Running   bool   `json:"running"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	Imported  int    `json:"imported"`
	Failed    int    `json:"failed"`
	Message   string `json:"message"`
}

// FoldName is the case-insensitive identity of a category name. It folds
// in Go so every backend agrees on non-ASCII names.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
