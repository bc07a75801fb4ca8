package analytics

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BucketSet defines the price bucket boundaries used by the
// price_bucket dimension. Buckets are half-open intervals
// [Bounds[i], Bounds[i+1]), with a final open-ended bucket from the
// last bound upward. Bounds must be strictly increasing.
type BucketSet struct {
	// Bounds are the lower edges, starting at the minimum price the
	// first bucket accepts (normally 0).
	Bounds []decimal.Decimal `json:"bounds"`

	// Currency prefixes bucket labels, e.g. "£".
	Currency string `json:"currency"`
}

// DefaultBucketSet returns the price ranges the dashboard was designed
// around: £0-£5, £5-£10, £10-£15, £15-£25, £25-£50, £50-£100, £100+.
func DefaultBucketSet() BucketSet {
	bounds := make([]decimal.Decimal, 0, 7)
	for _, edge := range []int64{0, 5, 10, 15, 25, 50, 100} {
		bounds = append(bounds, decimal.NewFromInt(edge))
	}
	return BucketSet{Bounds: bounds, Currency: "£"}
}

// Validate reports a configuration fault when the bounds are missing
// or not strictly increasing.
func (b BucketSet) Validate() error {
	if len(b.Bounds) == 0 {
		return fmt.Errorf("%w: bucket set has no bounds", ErrInvalidConfig)
	}
	for i := 1; i < len(b.Bounds); i++ {
		if !b.Bounds[i].GreaterThan(b.Bounds[i-1]) {
			return fmt.Errorf("%w: bucket bounds must be strictly increasing, got %s then %s",
				ErrInvalidConfig, b.Bounds[i-1], b.Bounds[i])
		}
	}
	return nil
}

// Labels returns the display label of every bucket, lowest first.
func (b BucketSet) Labels() []string {
	labels := make([]string, len(b.Bounds))
	for i := range b.Bounds {
		labels[i] = b.label(i)
	}
	return labels
}

// BucketFor returns the label of the bucket containing the price.
// Prices below the first bound land in the first bucket so that
// negative or zero prices never vanish from a rollup.
func (b BucketSet) BucketFor(price decimal.Decimal) string {
	for i := len(b.Bounds) - 1; i >= 0; i-- {
		if price.GreaterThanOrEqual(b.Bounds[i]) {
			return b.label(i)
		}
	}
	return b.label(0)
}

func (b BucketSet) label(i int) string {
	if i == len(b.Bounds)-1 {
		return fmt.Sprintf("%s%s+", b.Currency, b.Bounds[i])
	}
	return fmt.Sprintf("%s%s-%s%s", b.Currency, b.Bounds[i], b.Currency, b.Bounds[i+1])
}
