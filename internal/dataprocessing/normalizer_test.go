package dataprocessing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/pkg/contracts/domain"
)

func testRow(cells map[string]string) domain.RawRow {
	return domain.RawRow{Source: "2025", Number: 2, Cells: cells}
}

func validCells() map[string]string {
	return map[string]string{
		"Date":          "2025-02-10",
		"SKU":           "MUG-RED-11OZ",
		"Listing":       "Red Ceramic Mug 11oz",
		"Sales Channel": "Amazon UK",
		"Category":      "Drinkware",
		"Quantity":      "3",
		"Sales Value":   "£29.97",
	}
}

func TestNormalizeValidRow(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	ds := n.Normalize([]domain.RawRow{testRow(validCells())}, time.Now())

	require.Len(t, ds.Records, 1)
	assert.Empty(t, ds.Unrecognized)

	rec := ds.Records[0]
	assert.Equal(t, time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC), rec.Date)
	assert.Equal(t, 2025, rec.Year)
	assert.Equal(t, "MUG-RED-11OZ", rec.Product)
	assert.Equal(t, "Red Ceramic Mug 11oz", rec.Listing)
	assert.Equal(t, "Amazon UK", rec.Channel)
	assert.Equal(t, "Drinkware", rec.Category)
	assert.Equal(t, int64(3), rec.Quantity)
	assert.True(t, rec.Value.Equal(decimal.RequireFromString("29.97")), "value %s", rec.Value)
	assert.True(t, rec.UnitPrice.Equal(decimal.RequireFromString("9.99")), "unit price %s", rec.UnitPrice)
}

func TestNormalizeRejections(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(cells map[string]string)
		wantReason domain.RejectReason
		wantField  string
	}{
		{
			name:       "unparseable date",
			mutate:     func(c map[string]string) { c["Date"] = "not-a-date" },
			wantReason: domain.ReasonInvalidDate,
			wantField:  "Date",
		},
		{
			name:       "empty date",
			mutate:     func(c map[string]string) { c["Date"] = "" },
			wantReason: domain.ReasonInvalidDate,
			wantField:  "Date",
		},
		{
			name:       "missing product",
			mutate:     func(c map[string]string) { c["SKU"] = "   " },
			wantReason: domain.ReasonMissingProduct,
			wantField:  "SKU",
		},
		{
			name:       "non numeric quantity",
			mutate:     func(c map[string]string) { c["Quantity"] = "three" },
			wantReason: domain.ReasonInvalidQuantity,
			wantField:  "Quantity",
		},
		{
			name:       "fractional quantity",
			mutate:     func(c map[string]string) { c["Quantity"] = "2.5" },
			wantReason: domain.ReasonInvalidQuantity,
			wantField:  "Quantity",
		},
		{
			name:       "negative quantity",
			mutate:     func(c map[string]string) { c["Quantity"] = "-4" },
			wantReason: domain.ReasonNegativeQuantity,
			wantField:  "Quantity",
		},
		{
			name:       "negative value",
			mutate:     func(c map[string]string) { c["Sales Value"] = "-29.97" },
			wantReason: domain.ReasonNegativePrice,
			wantField:  "Sales Value",
		},
		{
			name:       "unparseable value",
			mutate:     func(c map[string]string) { c["Sales Value"] = "n/a" },
			wantReason: domain.ReasonInvalidPrice,
			wantField:  "Sales Value",
		},
		{
			name: "no money columns at all",
			mutate: func(c map[string]string) {
				c["Sales Value"] = ""
			},
			wantReason: domain.ReasonInvalidPrice,
			wantField:  "Sales Value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := NewNormalizer(DefaultNormalizerConfig())
			cells := validCells()
			tt.mutate(cells)

			ds := n.Normalize([]domain.RawRow{testRow(cells)}, time.Now())

			assert.Empty(t, ds.Records)
			require.Len(t, ds.Unrecognized, 1)

			bad := ds.Unrecognized[0]
			assert.Equal(t, tt.wantReason, bad.Reason)
			assert.Equal(t, tt.wantField, bad.Field)
			assert.Equal(t, 2, bad.Row.Number)
			assert.Equal(t, "2025", bad.Row.Source)
			assert.NotEmpty(t, bad.Detail)
		})
	}
}

func TestNormalizeCurrencyAndGrouping(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	cells := validCells()
	cells["Quantity"] = "100"
	cells["Sales Value"] = "£1,234.50"

	ds := n.Normalize([]domain.RawRow{testRow(cells)}, time.Now())

	require.Len(t, ds.Records, 1)
	rec := ds.Records[0]
	assert.True(t, rec.Value.Equal(decimal.RequireFromString("1234.50")), "value %s", rec.Value)
	assert.True(t, rec.UnitPrice.Equal(decimal.RequireFromString("12.345")), "unit price %s", rec.UnitPrice)
}

func TestNormalizeUnitPriceFallback(t *testing.T) {
	cfg := DefaultNormalizerConfig()
	n := NewNormalizer(cfg)

	cells := validCells()
	delete(cells, "Sales Value")
	cells[cfg.Columns.UnitPrice] = "€4.25"
	cells["Quantity"] = "2"

	ds := n.Normalize([]domain.RawRow{testRow(cells)}, time.Now())

	require.Len(t, ds.Records, 1)
	rec := ds.Records[0]
	assert.True(t, rec.UnitPrice.Equal(decimal.RequireFromString("4.25")), "unit price %s", rec.UnitPrice)
	assert.True(t, rec.Value.Equal(decimal.RequireFromString("8.50")), "value %s", rec.Value)
}

func TestNormalizeExplicitValueWins(t *testing.T) {
	cfg := DefaultNormalizerConfig()
	n := NewNormalizer(cfg)

	cells := validCells()
	cells["Sales Value"] = "30.00"
	cells[cfg.Columns.UnitPrice] = "5.00"
	cells["Quantity"] = "3"

	ds := n.Normalize([]domain.RawRow{testRow(cells)}, time.Now())

	require.Len(t, ds.Records, 1)
	rec := ds.Records[0]
	assert.True(t, rec.Value.Equal(decimal.RequireFromString("30.00")))
	assert.True(t, rec.UnitPrice.Equal(decimal.RequireFromString("10")), "unit price %s", rec.UnitPrice)
}

func TestNormalizeZeroQuantityKeepsValue(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	cells := validCells()
	cells["Quantity"] = "0"
	cells["Sales Value"] = "0"

	ds := n.Normalize([]domain.RawRow{testRow(cells)}, time.Now())

	require.Len(t, ds.Records, 1)
	assert.True(t, ds.Records[0].Value.IsZero())
	assert.True(t, ds.Records[0].UnitPrice.IsZero())
}

func TestNormalizeSourceYear(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	// Worksheet named after a year stamps the record even when the date
	// falls in an adjacent calendar year.
	cells := validCells()
	cells["Date"] = "2024-12-30"
	row := domain.RawRow{Source: "2025", Number: 5, Cells: cells}

	ds := n.Normalize([]domain.RawRow{row}, time.Now())
	require.Len(t, ds.Records, 1)
	assert.Equal(t, 2025, ds.Records[0].Year)

	// Non-year sheet names fall back to the transaction date.
	row.Source = "Sheet1"
	ds = n.Normalize([]domain.RawRow{row}, time.Now())
	require.Len(t, ds.Records, 1)
	assert.Equal(t, 2024, ds.Records[0].Year)
}

func TestNormalizeDateFormats(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())
	want := time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC)

	for _, raw := range []string{"2025-02-10", "10/02/2025", "2025-02-10 14:30:00"} {
		cells := validCells()
		cells["Date"] = raw

		ds := n.Normalize([]domain.RawRow{testRow(cells)}, time.Now())
		require.Len(t, ds.Records, 1, "raw date %q", raw)
		assert.Equal(t, want, ds.Records[0].Date, "raw date %q", raw)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	ds := n.Normalize(nil, time.Now())

	assert.Empty(t, ds.Records)
	assert.Empty(t, ds.Unrecognized)
}

func TestNormalizeMixedRowsPreserveOrder(t *testing.T) {
	n := NewNormalizer(DefaultNormalizerConfig())

	good1 := validCells()
	bad := validCells()
	bad["Date"] = "someday"
	good2 := validCells()
	good2["SKU"] = "MUG-BLUE-11OZ"

	ds := n.Normalize([]domain.RawRow{
		{Source: "2025", Number: 2, Cells: good1},
		{Source: "2025", Number: 3, Cells: bad},
		{Source: "2025", Number: 4, Cells: good2},
	}, time.Now())

	require.Len(t, ds.Records, 2)
	require.Len(t, ds.Unrecognized, 1)
	assert.Equal(t, "MUG-RED-11OZ", ds.Records[0].Product)
	assert.Equal(t, "MUG-BLUE-11OZ", ds.Records[1].Product)
	assert.Equal(t, 3, ds.Unrecognized[0].Row.Number)
}

func TestNormalizerConfigValidation(t *testing.T) {
	assert.True(t, DefaultNormalizerConfig().IsValid())

	broken := DefaultNormalizerConfig()
	broken.Columns.Date = ""
	assert.False(t, broken.IsValid())

	// Invalid configs fall back to defaults rather than producing a
	// normalizer that rejects everything.
	n := NewNormalizer(broken)
	ds := n.Normalize([]domain.RawRow{testRow(validCells())}, time.Now())
	assert.Len(t, ds.Records, 1)
}
