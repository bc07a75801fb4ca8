package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RawRow is one unprocessed spreadsheet row: the cell values keyed by
// column header, plus enough source metadata to point a human back at
// the offending cell when the row is rejected.
type RawRow struct {
	// Source is the worksheet or file name the row came from (e.g. "2025").
	Source string `json:"source"`

	// Number is the 1-based row number within the source, headers included.
	Number int `json:"number"`

	// Cells maps column header to the raw cell text.
	Cells map[string]string `json:"cells"`
}

// SalesRecord is the canonical representation of a single transaction
// line item. All derived metrics are computed from sequences of these.
//
// Monetary fields use decimal.Decimal so that currency totals are exact;
// display-oriented ratios (averages, shares, percentages) are computed
// downstream as float64.
type SalesRecord struct {
	// Date is the transaction calendar date (time component zeroed).
	Date time.Time `json:"date"`

	// Year is the source worksheet year the row was loaded from. It may
	// differ from Date.Year() around retail-calendar year boundaries.
	Year int `json:"year" validate:"min=2000,max=2100"`

	// Product is the SKU-level product identifier.
	Product string `json:"product" validate:"required"`

	// Listing is the marketplace listing the sale was attributed to.
	Listing string `json:"listing,omitempty"`

	// Channel is the sales channel (e.g. "Amazon FBA UK", "Web Direct").
	Channel string `json:"channel,omitempty"`

	// Category is the merchandising category, when the source provides one.
	Category string `json:"category,omitempty"`

	// UnitPrice is the effective per-unit price. When the source supplies
	// a line value, UnitPrice is derived as Value / Quantity.
	UnitPrice decimal.Decimal `json:"unit_price"`

	// Quantity is the number of units sold. Never negative.
	Quantity int64 `json:"quantity" validate:"min=0"`

	// Value is the line total in the account currency.
	Value decimal.Decimal `json:"value"`
}

// lineTotalTolerance bounds the rounding drift allowed between Value and
// UnitPrice * Quantity before a record is considered inconsistent.
var lineTotalTolerance = decimal.NewFromFloat(0.01)

// LineTotal returns the line value, falling back to UnitPrice * Quantity
// when the source did not provide an explicit value.
func (r SalesRecord) LineTotal() decimal.Decimal {
	if !r.Value.IsZero() {
		return r.Value
	}
	return r.UnitPrice.Mul(decimal.NewFromInt(r.Quantity))
}

// IsValid reports whether the record satisfies its own invariants:
// a real calendar date, a product identifier, a non-negative quantity,
// and a line total consistent with unit price within rounding tolerance.
func (r SalesRecord) IsValid() bool {
	if r.Date.IsZero() || r.Product == "" || r.Quantity < 0 {
		return false
	}
	if r.UnitPrice.IsNegative() || r.Value.IsNegative() {
		return false
	}
	if r.Quantity > 0 && !r.Value.IsZero() {
		expected := r.UnitPrice.Mul(decimal.NewFromInt(r.Quantity))
		if r.Value.Sub(expected).Abs().GreaterThan(lineTotalTolerance) {
			return false
		}
	}
	return true
}

// RejectReason classifies why a raw row could not be normalized.
type RejectReason string

const (
	ReasonInvalidDate      RejectReason = "invalid-date"
	ReasonInvalidPrice     RejectReason = "invalid-price"
	ReasonNegativePrice    RejectReason = "negative-price"
	ReasonInvalidQuantity  RejectReason = "invalid-quantity"
	ReasonNegativeQuantity RejectReason = "negative-quantity"
	ReasonMissingProduct   RejectReason = "missing-product"
)

// UnrecognizedRow is a raw row that failed normalization, kept for the
// audit view instead of being dropped silently.
type UnrecognizedRow struct {
	Row    RawRow       `json:"row"`
	Reason RejectReason `json:"reason"`

	// Field names the column that failed coercion, when identifiable.
	Field string `json:"field,omitempty"`

	// Detail carries the parse failure text for humans.
	Detail string `json:"detail,omitempty"`
}

// Dataset is the normalizer output for one fetch: the records that
// passed coercion and the rows that did not. A Dataset is immutable
// once produced; refreshes replace it wholesale.
type Dataset struct {
	Records      []SalesRecord     `json:"records"`
	Unrecognized []UnrecognizedRow `json:"unrecognized"`

	// FetchedAt is when the raw rows were pulled from the source.
	FetchedAt time.Time `json:"fetched_at"`
}

// Years returns the distinct source years present in the dataset,
// in ascending order.
func (d Dataset) Years() []int {
	seen := make(map[int]bool, 4)
	for _, r := range d.Records {
		seen[r.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// TargetEntry is one row of the targets worksheet: a calendar date and
// the revenue target set for that day.
type TargetEntry struct {
	Date   time.Time       `json:"date"`
	Target decimal.Decimal `json:"target"`
}
