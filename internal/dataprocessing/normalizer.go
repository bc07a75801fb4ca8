package dataprocessing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"salespulse/pkg/contracts/domain"
)

// ColumnMap names the workbook columns that hold each logical field.
// Listing, Channel, Category and UnitPrice are optional; the rest are
// required for a row to normalize.
type ColumnMap struct {
	Date      string `yaml:"date"`
	Product   string `yaml:"product"`
	Listing   string `yaml:"listing"`
	Channel   string `yaml:"channel"`
	Category  string `yaml:"category"`
	Quantity  string `yaml:"quantity"`
	Value     string `yaml:"value"`
	UnitPrice string `yaml:"unit_price"`
}

// NormalizerConfig controls raw row coercion.
type NormalizerConfig struct {
	Columns ColumnMap

	// DateFormats are tried in order when parsing the date column.
	DateFormats []string

	// CurrencySymbols are stripped from numeric cells before parsing.
	CurrencySymbols string
}

// DefaultNormalizerConfig returns the column names and formats used by
// the sales workbook this service was built around.
func DefaultNormalizerConfig() NormalizerConfig {
	return NormalizerConfig{
		Columns: ColumnMap{
			Date:      "Date",
			Product:   "SKU",
			Listing:   "Listing",
			Channel:   "Sales Channel",
			Category:  "Category",
			Quantity:  "Quantity",
			Value:     "Sales Value",
			UnitPrice: "Unit Price",
		},
		DateFormats: []string{
			"2006-01-02",
			"02/01/2006",
			"2006-01-02 15:04:05",
			time.RFC3339,
		},
		CurrencySymbols: "£$€",
	}
}

// IsValid reports whether the configuration names the required columns
// and at least one date format.
func (c NormalizerConfig) IsValid() bool {
	return c.Columns.Date != "" &&
		c.Columns.Product != "" &&
		c.Columns.Quantity != "" &&
		(c.Columns.Value != "" || c.Columns.UnitPrice != "") &&
		len(c.DateFormats) > 0
}

// Normalizer coerces raw spreadsheet rows into SalesRecords. Rows that
// fail coercion are reported, never dropped and never fatal: the
// normalizer takes data problems out of band so downstream engines only
// ever see well-formed records.
type Normalizer struct {
	config NormalizerConfig
}

// NewNormalizer creates a normalizer, falling back to the default
// configuration when the provided one is incomplete.
func NewNormalizer(config NormalizerConfig) *Normalizer {
	if !config.IsValid() {
		config = DefaultNormalizerConfig()
	}
	return &Normalizer{config: config}
}

// Normalize turns raw rows into a Dataset of valid records plus the
// unrecognized remainder. It never returns an error: every failure is
// captured against its row with a reason code.
func (n *Normalizer) Normalize(rows []domain.RawRow, fetchedAt time.Time) domain.Dataset {
	dataset := domain.Dataset{
		Records:      make([]domain.SalesRecord, 0, len(rows)),
		Unrecognized: nil,
		FetchedAt:    fetchedAt,
	}

	for _, row := range rows {
		record, reject := n.normalizeRow(row)
		if reject != nil {
			dataset.Unrecognized = append(dataset.Unrecognized, *reject)
			continue
		}
		dataset.Records = append(dataset.Records, record)
	}

	return dataset
}

func (n *Normalizer) normalizeRow(row domain.RawRow) (domain.SalesRecord, *domain.UnrecognizedRow) {
	cols := n.config.Columns

	date, err := n.parseDate(row.Cells[cols.Date])
	if err != nil {
		return domain.SalesRecord{}, reject(row, domain.ReasonInvalidDate, cols.Date, err)
	}

	product := strings.TrimSpace(row.Cells[cols.Product])
	if product == "" {
		return domain.SalesRecord{}, reject(row, domain.ReasonMissingProduct, cols.Product,
			fmt.Errorf("empty product cell"))
	}

	quantity, err := n.parseQuantity(row.Cells[cols.Quantity])
	if err != nil {
		return domain.SalesRecord{}, reject(row, domain.ReasonInvalidQuantity, cols.Quantity, err)
	}
	if quantity < 0 {
		return domain.SalesRecord{}, reject(row, domain.ReasonNegativeQuantity, cols.Quantity,
			fmt.Errorf("quantity %d is negative", quantity))
	}

	value, unitPrice, rejReason, rejField, err := n.parseMoney(row, quantity)
	if err != nil {
		return domain.SalesRecord{}, reject(row, rejReason, rejField, err)
	}

	return domain.SalesRecord{
		Date:      date,
		Year:      n.sourceYear(row, date),
		Product:   product,
		Listing:   strings.TrimSpace(row.Cells[cols.Listing]),
		Channel:   strings.TrimSpace(row.Cells[cols.Channel]),
		Category:  strings.TrimSpace(row.Cells[cols.Category]),
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Value:     value,
	}, nil
}

// parseMoney resolves the line value and unit price from whichever of
// the two columns the source provides. An explicit value wins and the
// unit price is derived from it.
func (n *Normalizer) parseMoney(row domain.RawRow, quantity int64) (value, unitPrice decimal.Decimal, reason domain.RejectReason, field string, err error) {
	cols := n.config.Columns

	rawValue := strings.TrimSpace(row.Cells[cols.Value])
	rawPrice := strings.TrimSpace(row.Cells[cols.UnitPrice])

	if rawValue == "" && rawPrice == "" {
		return decimal.Zero, decimal.Zero, domain.ReasonInvalidPrice, cols.Value,
			fmt.Errorf("no value or unit price cell")
	}

	if rawValue != "" {
		value, err = n.parseDecimal(rawValue)
		if err != nil {
			return decimal.Zero, decimal.Zero, domain.ReasonInvalidPrice, cols.Value, err
		}
		if value.IsNegative() {
			return decimal.Zero, decimal.Zero, domain.ReasonNegativePrice, cols.Value,
				fmt.Errorf("value %s is negative", value)
		}
		if quantity > 0 {
			unitPrice = value.DivRound(decimal.NewFromInt(quantity), 4)
		}
		return value, unitPrice, "", "", nil
	}

	unitPrice, err = n.parseDecimal(rawPrice)
	if err != nil {
		return decimal.Zero, decimal.Zero, domain.ReasonInvalidPrice, cols.UnitPrice, err
	}
	if unitPrice.IsNegative() {
		return decimal.Zero, decimal.Zero, domain.ReasonNegativePrice, cols.UnitPrice,
			fmt.Errorf("unit price %s is negative", unitPrice)
	}
	value = unitPrice.Mul(decimal.NewFromInt(quantity))
	return value, unitPrice, "", "", nil
}

func (n *Normalizer) parseDate(raw string) (time.Time, error) {
	return parseDateIn(raw, n.config.DateFormats)
}

func parseDateIn(raw string, formats []string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date cell")
	}
	for _, format := range formats {
		if t, err := time.Parse(format, raw); err == nil {
			return midnightUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", raw)
}

// parseQuantity accepts integer cells and numeric cells with a zero
// fraction ("3.0"); anything else is invalid.
func (n *Normalizer) parseQuantity(raw string) (int64, error) {
	cleaned := n.cleanNumeric(raw)
	if cleaned == "" {
		return 0, fmt.Errorf("empty quantity cell")
	}
	if q, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return q, nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("non-numeric quantity %q", raw)
	}
	if !d.Equal(d.Truncate(0)) {
		return 0, fmt.Errorf("fractional quantity %q", raw)
	}
	return d.IntPart(), nil
}

func (n *Normalizer) parseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := n.cleanNumeric(raw)
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty numeric cell")
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("non-numeric cell %q", raw)
	}
	return d, nil
}

func (n *Normalizer) cleanNumeric(raw string) string {
	return cleanNumeric(raw, n.config.CurrencySymbols)
}

// cleanNumeric strips currency symbols and thousands separators the way
// the source workbook formats money cells ("£1,234.50" -> "1234.50").
func cleanNumeric(raw, symbols string) string {
	cleaned := strings.TrimSpace(raw)
	for _, symbol := range symbols {
		cleaned = strings.ReplaceAll(cleaned, string(symbol), "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return strings.TrimSpace(cleaned)
}

// sourceYear prefers the worksheet name when it is a plain year, which
// keeps rows attributed to their source tab even when a date strays
// across a year boundary.
func (n *Normalizer) sourceYear(row domain.RawRow, date time.Time) int {
	if y, err := strconv.Atoi(strings.TrimSpace(row.Source)); err == nil && y >= 1990 && y <= 2100 {
		return y
	}
	return date.Year()
}

func reject(row domain.RawRow, reason domain.RejectReason, field string, err error) *domain.UnrecognizedRow {
	return &domain.UnrecognizedRow{
		Row:    row,
		Reason: reason,
		Field:  field,
		Detail: err.Error(),
	}
}
