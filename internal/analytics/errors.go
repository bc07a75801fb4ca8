package analytics

import "errors"

// ErrInvalidConfig marks a caller error: an empty dimension set, a
// negative ranking size, or non-monotonic bucket bounds. These are
// rejected before any computation runs. Data problems never surface
// here; malformed rows are handled upstream by the normalizer.
var ErrInvalidConfig = errors.New("invalid analytics configuration")
