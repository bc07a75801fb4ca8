package analytics

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Dimension identifies one grouping axis for aggregation.
type Dimension string

const (
	// DimDay groups by calendar date (YYYY-MM-DD).
	DimDay Dimension = "day"
	// DimMonth groups by calendar month (YYYY-MM).
	DimMonth Dimension = "month"
	// DimYear groups by source year.
	DimYear Dimension = "year"
	// DimRetailWeek groups by the Saturday-to-Friday retail week.
	DimRetailWeek Dimension = "retail_week"
	// DimProduct groups by product identifier.
	DimProduct Dimension = "product"
	// DimListing groups by listing title.
	DimListing Dimension = "listing"
	// DimChannel groups by sales channel.
	DimChannel Dimension = "channel"
	// DimCategory groups by product category.
	DimCategory Dimension = "category"
	// DimPriceBucket groups by unit price bucket.
	DimPriceBucket Dimension = "price_bucket"
)

// IsValid reports whether the dimension is one the engine can extract.
func (d Dimension) IsValid() bool {
	switch d {
	case DimDay, DimMonth, DimYear, DimRetailWeek, DimProduct,
		DimListing, DimChannel, DimCategory, DimPriceBucket:
		return true
	}
	return false
}

// Metric selects which aggregate a ranking or comparison reads.
type Metric string

const (
	// MetricValue ranks by summed sales value.
	MetricValue Metric = "value"
	// MetricUnits ranks by summed quantity.
	MetricUnits Metric = "units"
	// MetricOrders ranks by record count.
	MetricOrders Metric = "orders"
	// MetricAverage ranks by average value per record.
	MetricAverage Metric = "average"
)

// IsValid reports whether the metric is one of the defined selectors.
func (m Metric) IsValid() bool {
	switch m {
	case MetricValue, MetricUnits, MetricOrders, MetricAverage:
		return true
	}
	return false
}

// Key is the ordered tuple of dimension values identifying one group,
// in the same order as the GroupSpec dimensions that produced it.
type Key []string

// String renders the key parts joined for display and map lookup.
// Part order is significant, so the rendering is injective for a fixed
// dimension set.
func (k Key) String() string {
	out := ""
	for i, part := range k {
		if i > 0 {
			out += "|"
		}
		out += part
	}
	return out
}

// Group is the metrics tuple for one aggregation key. Value sums use
// decimals so currency totals do not drift; Average is Value/Orders
// and zero when the group somehow has no records.
type Group struct {
	Key     Key             `json:"key"`
	Value   decimal.Decimal `json:"value"`
	Units   int64           `json:"units"`
	Orders  int             `json:"orders"`
	Average decimal.Decimal `json:"average"`
}

// Metric returns the group's value for the given selector as a float.
func (g Group) Metric(m Metric) float64 {
	switch m {
	case MetricUnits:
		return float64(g.Units)
	case MetricOrders:
		return float64(g.Orders)
	case MetricAverage:
		return g.Average.InexactFloat64()
	default:
		return g.Value.InexactFloat64()
	}
}

// MetricDecimal returns the same selection without leaving decimal
// space, for deltas that must not drift.
func (g Group) MetricDecimal(m Metric) decimal.Decimal {
	switch m {
	case MetricUnits:
		return decimal.NewFromInt(g.Units)
	case MetricOrders:
		return decimal.NewFromInt(int64(g.Orders))
	case MetricAverage:
		return g.Average
	default:
		return g.Value
	}
}

// AggregationResult holds the groups produced by one Aggregate call,
// sorted by key for stable display. It is immutable once returned.
type AggregationResult struct {
	Dimensions []Dimension `json:"dimensions"`
	Groups     []Group     `json:"groups"`

	// byKey indexes Groups by Key.String() for comparison lookups.
	byKey map[string]int
}

// Group looks up a group by its rendered key.
func (r *AggregationResult) Group(key string) (Group, bool) {
	idx, ok := r.byKey[key]
	if !ok {
		return Group{}, false
	}
	return r.Groups[idx], true
}

// Total sums the group values, which by construction equals the sum
// over all input records.
func (r *AggregationResult) Total() decimal.Decimal {
	total := decimal.Zero
	for _, g := range r.Groups {
		total = total.Add(g.Value)
	}
	return total
}

// Len returns the number of groups.
func (r *AggregationResult) Len() int {
	return len(r.Groups)
}

// Sentinel values reported in place of a percentage when the number is
// mathematically undefined.
const (
	// SentinelUndefined replaces a percent change whose prior value is
	// zero, whatever the current value is.
	SentinelUndefined = "undefined"
	// SentinelNew marks a key present in the current period only.
	SentinelNew = "new"
)

// Percent is a percent change that is either a number or a sentinel.
// It marshals as a JSON number when defined and as the sentinel string
// otherwise, so rendering layers never see a division artifact.
type Percent struct {
	Value    float64
	Sentinel string
}

// PercentOf builds a defined percent value.
func PercentOf(v float64) Percent {
	return Percent{Value: v}
}

// PercentSentinel builds a sentinel percent.
func PercentSentinel(s string) Percent {
	return Percent{Sentinel: s}
}

// Defined reports whether the percent carries a numeric value.
func (p Percent) Defined() bool {
	return p.Sentinel == ""
}

// MarshalJSON emits a number when defined, the sentinel string when not.
func (p Percent) MarshalJSON() ([]byte, error) {
	if p.Defined() {
		return json.Marshal(p.Value)
	}
	return json.Marshal(p.Sentinel)
}

// UnmarshalJSON accepts either form.
func (p *Percent) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*p = Percent{Value: v}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("percent must be a number or sentinel string: %w", err)
	}
	*p = Percent{Sentinel: s}
	return nil
}

// String renders the percent for logs and CSV export.
func (p Percent) String() string {
	if p.Defined() {
		return fmt.Sprintf("%.2f", p.Value)
	}
	return p.Sentinel
}

// ComparisonRow is the change for one key between two periods.
type ComparisonRow struct {
	Key     Key             `json:"key"`
	Current decimal.Decimal `json:"current"`
	Prior   decimal.Decimal `json:"prior"`
	Delta   decimal.Decimal `json:"delta"`
	Percent Percent         `json:"percent"`

	// New and Discontinued flag keys present in only one period.
	New          bool `json:"new,omitempty"`
	Discontinued bool `json:"discontinued,omitempty"`
}

// ComparisonResult pairs two aggregation results over the union of
// their keys, sorted by key.
type ComparisonResult struct {
	Rows []ComparisonRow `json:"rows"`
}

// RankingEntry is one ranked key with the metric it was ranked by.
type RankingEntry struct {
	Key    Key     `json:"key"`
	Metric float64 `json:"metric"`
}

// RankingResult holds the two disjoint ranked sequences. A key never
// appears in both: the bottom list is drawn from what the top list
// left behind.
type RankingResult struct {
	Metric Metric         `json:"metric"`
	Top    []RankingEntry `json:"top"`
	Bottom []RankingEntry `json:"bottom"`
}

// SeasonalityRow is one period's share of its cycle.
type SeasonalityRow struct {
	Cycle  string          `json:"cycle"`
	Period string          `json:"period"`
	Value  decimal.Decimal `json:"value"`
	Units  int64           `json:"units"`

	// Share is period value / cycle total, 0 when the cycle total is 0.
	Share float64 `json:"share"`

	// WeightedPrice is period value / period units, 0 when no units.
	WeightedPrice float64 `json:"weighted_price"`
}

// SeasonalityResult maps every observed cycle to its period shares,
// sorted by cycle then period.
type SeasonalityResult struct {
	Rows []SeasonalityRow `json:"rows"`
}

// DayPattern is the trading profile of one weekday.
type DayPattern struct {
	Weekday string  `json:"weekday"`
	Mean    float64 `json:"mean"`
	Days    int     `json:"days"`
}

// PatternResult summarizes how sales distribute across the week.
// Means are taken over daily totals, not over raw records, so a busy
// day with many small orders weighs the same as one large order.
type PatternResult struct {
	Days []DayPattern `json:"days"`

	// WeekendWeekdayRatio is weekend mean / weekday mean, 0 when the
	// weekday mean is 0.
	WeekendWeekdayRatio float64 `json:"weekend_weekday_ratio"`
}

// TargetRow is one month's actual revenue against its target.
type TargetRow struct {
	Month    string          `json:"month"`
	Actual   decimal.Decimal `json:"actual"`
	Target   decimal.Decimal `json:"target"`
	Variance decimal.Decimal `json:"variance"`

	// Attainment is actual/target as a percentage, 0 when the target
	// is 0 (variance is also 0 then, so untargeted months read flat).
	Attainment float64 `json:"attainment"`
}

// TargetResult holds per-month target rows sorted by month.
type TargetResult struct {
	Rows []TargetRow `json:"rows"`
}
