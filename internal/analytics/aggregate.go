package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"salespulse/internal/dataprocessing"
	"salespulse/pkg/contracts/domain"
)

// GroupSpec configures one Aggregate call: which dimensions to group
// by and, when price_bucket is among them, the bucket boundaries.
type GroupSpec struct {
	Dimensions []Dimension `json:"dimensions"`
	Buckets    BucketSet   `json:"buckets"`
}

// Validate rejects caller mistakes before any records are touched.
func (s GroupSpec) Validate() error {
	if len(s.Dimensions) == 0 {
		return fmt.Errorf("%w: no grouping dimensions", ErrInvalidConfig)
	}
	for _, dim := range s.Dimensions {
		if !dim.IsValid() {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidConfig, dim)
		}
		if dim == DimPriceBucket {
			if err := s.Buckets.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Aggregate groups records along the spec's dimensions and sums value,
// units and order count per group. Only observed keys appear; an empty
// record sequence yields an empty result. Groups come back sorted by
// key, so equal inputs produce identical output whatever order the
// records arrived in.
func Aggregate(records []domain.SalesRecord, spec GroupSpec) (*AggregationResult, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	groups := make(map[string]*Group)
	for _, rec := range records {
		key := extractKey(rec, spec)
		id := key.String()
		g, ok := groups[id]
		if !ok {
			g = &Group{Key: key}
			groups[id] = g
		}
		g.Value = g.Value.Add(rec.LineTotal())
		g.Units += rec.Quantity
		g.Orders++
	}

	result := &AggregationResult{
		Dimensions: spec.Dimensions,
		Groups:     make([]Group, 0, len(groups)),
		byKey:      make(map[string]int, len(groups)),
	}
	for _, g := range groups {
		g.Average = g.Value.DivRound(decimal.NewFromInt(int64(g.Orders)), 4)
		result.Groups = append(result.Groups, *g)
	}
	sort.Slice(result.Groups, func(i, j int) bool {
		return lessKey(result.Groups[i].Key, result.Groups[j].Key)
	})
	for i, g := range result.Groups {
		result.byKey[g.Key.String()] = i
	}
	return result, nil
}

// extractKey renders the record's value for each dimension, in spec
// order.
func extractKey(rec domain.SalesRecord, spec GroupSpec) Key {
	key := make(Key, len(spec.Dimensions))
	for i, dim := range spec.Dimensions {
		key[i] = dimensionValue(rec, dim, spec.Buckets)
	}
	return key
}

func dimensionValue(rec domain.SalesRecord, dim Dimension, buckets BucketSet) string {
	switch dim {
	case DimDay:
		return rec.Date.Format("2006-01-02")
	case DimMonth:
		return rec.Date.Format("2006-01")
	case DimYear:
		return strconv.Itoa(rec.Year)
	case DimRetailWeek:
		return dataprocessing.WeekOf(rec.Date).String()
	case DimProduct:
		return rec.Product
	case DimListing:
		return rec.Listing
	case DimChannel:
		return rec.Channel
	case DimCategory:
		return rec.Category
	case DimPriceBucket:
		return buckets.BucketFor(rec.UnitPrice)
	}
	return ""
}

// lessKey orders keys part-wise so multi-dimension results sort the
// way a pivot table displays them.
func lessKey(a, b Key) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// FilterChannel returns the records whose channel contains the given
// substring, case-insensitively. An empty filter keeps everything.
func FilterChannel(records []domain.SalesRecord, channel string) []domain.SalesRecord {
	if channel == "" {
		return records
	}
	out := make([]domain.SalesRecord, 0, len(records))
	for _, rec := range records {
		if containsFold(rec.Channel, channel) {
			out = append(out, rec)
		}
	}
	return out
}

// FilterYear returns the records stamped with the given source year.
func FilterYear(records []domain.SalesRecord, year int) []domain.SalesRecord {
	out := make([]domain.SalesRecord, 0, len(records))
	for _, rec := range records {
		if rec.Year == year {
			out = append(out, rec)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
