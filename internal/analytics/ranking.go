package analytics

import (
	"fmt"
	"sort"
)

// Rank produces the top and bottom n groups by the chosen metric. The
// top list is taken from the full set first; the bottom list is then
// drawn from whatever the top list left, so no key can appear in both.
// When fewer than 2n keys exist the bottom list shrinks rather than
// overlap. Ties order lexicographically by key so output is stable.
func Rank(result *AggregationResult, metric Metric, n int) (*RankingResult, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: ranking size %d is negative", ErrInvalidConfig, n)
	}
	if !metric.IsValid() {
		return nil, fmt.Errorf("%w: unknown metric %q", ErrInvalidConfig, metric)
	}

	ranking := &RankingResult{Metric: metric, Top: []RankingEntry{}, Bottom: []RankingEntry{}}
	if result == nil || n == 0 {
		return ranking, nil
	}

	entries := make([]RankingEntry, 0, len(result.Groups))
	for _, g := range result.Groups {
		entries = append(entries, RankingEntry{Key: g.Key, Metric: g.Metric(metric)})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Metric != entries[j].Metric {
			return entries[i].Metric > entries[j].Metric
		}
		return lessKey(entries[i].Key, entries[j].Key)
	})

	top := n
	if top > len(entries) {
		top = len(entries)
	}
	ranking.Top = append(ranking.Top, entries[:top]...)

	rest := entries[top:]
	sort.Slice(rest, func(i, j int) bool {
		if rest[i].Metric != rest[j].Metric {
			return rest[i].Metric < rest[j].Metric
		}
		return lessKey(rest[i].Key, rest[j].Key)
	})

	bottom := n
	if bottom > len(rest) {
		bottom = len(rest)
	}
	ranking.Bottom = append(ranking.Bottom, rest[:bottom]...)

	return ranking, nil
}
