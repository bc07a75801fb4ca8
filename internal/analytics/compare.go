package analytics

import (
	"fmt"
	"sort"
)

// Compare derives the period-over-period change for every key present
// in either result. Keys in both periods get delta and percent change;
// percent is the undefined sentinel whenever the prior value is zero,
// whatever the current value is. Keys only in current are new
// entrants. Keys only in prior are discontinued, with delta equal to
// the negated prior value and the undefined percent sentinel, so a
// vanished key never reads as an ordinary -100% decline.
func Compare(current, prior *AggregationResult, metric Metric) (*ComparisonResult, error) {
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, metric)
	}

	empty := &AggregationResult{}
	if current == nil {
		current = empty
	}
	if prior == nil {
		prior = empty
	}

	seen := make(map[string]Key, len(current.Groups)+len(prior.Groups))
	for _, g := range current.Groups {
		seen[g.Key.String()] = g.Key
	}
	for _, g := range prior.Groups {
		seen[g.Key.String()] = g.Key
	}

	keys := make([]Key, 0, len(seen))
	for _, k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	result := &ComparisonResult{Rows: make([]ComparisonRow, 0, len(keys))}
	for _, key := range keys {
		id := key.String()
		cur, inCurrent := current.Group(id)
		pre, inPrior := prior.Group(id)

		row := ComparisonRow{Key: key}
		if inCurrent {
			row.Current = cur.MetricDecimal(metric)
		}
		if inPrior {
			row.Prior = pre.MetricDecimal(metric)
		}
		row.Delta = row.Current.Sub(row.Prior)

		switch {
		case !inPrior:
			row.New = true
			row.Percent = PercentSentinel(SentinelNew)
		case !inCurrent:
			row.Discontinued = true
			row.Percent = PercentSentinel(SentinelUndefined)
		case row.Prior.IsZero():
			row.Percent = PercentSentinel(SentinelUndefined)
		default:
			change := row.Delta.InexactFloat64() / row.Prior.InexactFloat64() * 100
			row.Percent = PercentOf(change)
		}

		result.Rows = append(result.Rows, row)
	}
	return result, nil
}
