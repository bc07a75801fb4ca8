// Package analytics implements the derived-metrics engines behind the
// sales dashboard.
//
// Every engine is a pure function over canonical sales records: no
// shared state, no I/O, no ordering dependency between engines. The
// same records and configuration always produce the same result, so
// callers are free to cache outputs or recompute at will.
//
// # Core Components
//
//   - types.go: result value objects shared by every engine
//   - buckets.go: half-open price bucket boundaries and labels
//   - aggregate.go: grouped sums, units and counts over any dimension set
//   - compare.go: period-over-period deltas with explicit sentinels
//   - ranking.go: top/bottom-N lists with overlap prevention
//   - seasonality.go: per-period share of a yearly cycle
//   - patterns.go: day-of-week trading profile
//   - targets.go: monthly revenue against the targets sheet
//
// # Usage Example
//
//	spec := analytics.GroupSpec{
//	    Dimensions: []analytics.Dimension{analytics.DimProduct},
//	    Buckets:    analytics.DefaultBucketSet(),
//	}
//	byProduct, err := analytics.Aggregate(dataset.Records, spec)
//	if err != nil {
//	    return err
//	}
//	ranking, err := analytics.Rank(byProduct, analytics.MetricValue, 10)
//	if err != nil {
//	    return err
//	}
//
// # Error Handling
//
// Engines fail only on caller mistakes (empty dimension sets, negative
// ranking sizes, non-monotonic bucket bounds), reported as errors
// wrapping ErrInvalidConfig before any computation starts. Degenerate
// data never faults: zero denominators come back as sentinels or
// zeros, and empty inputs produce empty results.
//
// # Determinism
//
// Currency sums stay in decimal space to avoid floating-point drift,
// results are sorted by key, and ties break lexicographically, so
// output is identical under any permutation of the input records.
package analytics
