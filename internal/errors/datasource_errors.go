package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"
)

// Data-source errors (using errors package for sentinel errors)
var (
	ErrSheetUnreachable   = errors.New("sheet unreachable")
	ErrSheetEmpty         = errors.New("sheet has no data rows")
	ErrSnapshotPending    = errors.New("snapshot pending")
	ErrRefreshInFlight    = errors.New("refresh already in flight")
	ErrCredentialsMissing = errors.New("credentials file missing")
	ErrCredentialsInvalid = errors.New("credentials invalid")
	ErrTargetsUnavailable = errors.New("targets sheet unavailable")
)

// SnapshotDetails provides additional context for data-source errors
type SnapshotDetails struct {
	FetchedAt     *time.Time `json:"fetched_at,omitempty"`
	RecordCount   int        `json:"record_count,omitempty"`
	RejectedCount int        `json:"rejected_count,omitempty"`
	Sheets        []string   `json:"sheets,omitempty"`
	NextRefresh   *time.Time `json:"next_refresh,omitempty"`
	RetryAfter    int        `json:"retry_after,omitempty"`
}

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	// Add standard fields
	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	// Add extensions
	for k, v := range pd.Extensions {
		data[k] = v
	}

	// Use standard JSON marshaling
	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// NewRefreshInFlightError creates a conflict response for concurrent refresh requests
func NewRefreshInFlightError(details *SnapshotDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusConflict,
		TypeRefreshRunning,
		"Refresh Already Running",
		"A data refresh is already in progress. The dashboard will update when it completes.",
		fmt.Sprintf("/api/refresh#%s", traceID),
	)

	problem.WithExtension("error_type", "refresh_in_flight").
		WithExtension("trace_id", traceID)

	if details != nil {
		if details.FetchedAt != nil {
			problem.WithExtension("last_snapshot_at", details.FetchedAt.Format(time.RFC3339))
		}
		if details.NextRefresh != nil {
			problem.WithExtension("next_scheduled_refresh", details.NextRefresh.Format(time.RFC3339))
		}
		if details.RetryAfter > 0 {
			problem.WithExtension("retry_after", details.RetryAfter)
		}
	}

	return problem
}

// NewSnapshotPendingError creates a service-unavailable response for requests
// that arrive before the first fetch has completed
func NewSnapshotPendingError(details *SnapshotDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusServiceUnavailable,
		TypeSnapshotPending,
		"Snapshot Pending",
		"Sales data has not been loaded yet. The first fetch is still running.",
		fmt.Sprintf("/api/dashboard#trace-%s", traceID),
	)

	problem.WithExtension("error_type", "snapshot_pending").
		WithExtension("trace_id", traceID).
		WithExtension("retry_after", 10)

	if details != nil && details.RetryAfter > 0 {
		problem.WithExtension("retry_after", details.RetryAfter)
	}

	return problem
}

// NewSheetUnreachableError creates a service-unavailable response when the
// spreadsheet source cannot be fetched. Stale snapshot context is attached
// when available so clients know how old the data they hold is.
func NewSheetUnreachableError(details *SnapshotDetails, traceID string) *ProblemDetails {
	problem := NewProblemDetails(
		http.StatusServiceUnavailable,
		TypeSheetUnavailable,
		"Spreadsheet Unavailable",
		"The spreadsheet source could not be reached. Please check connectivity and sharing permissions.",
		fmt.Sprintf("/api/dashboard#trace-%s", traceID),
	)

	problem.WithExtension("error_type", "sheet_unreachable").
		WithExtension("trace_id", traceID).
		WithExtension("retry_after", 60)

	if details != nil {
		if details.FetchedAt != nil {
			problem.WithExtension("stale_snapshot_at", details.FetchedAt.Format(time.RFC3339))
			problem.WithExtension("stale_record_count", details.RecordCount)
		}
		if len(details.Sheets) > 0 {
			problem.WithExtension("sheets_attempted", details.Sheets)
		}
		if details.RetryAfter > 0 {
			problem.WithExtension("retry_after", details.RetryAfter)
		}
	}

	return problem
}

// MapDataSourceError maps domain errors to HTTP problem details
func MapDataSourceError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/api/dashboard#trace-%s", traceID)

	// Check if it's an APIError from errors.go
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return NewProblemDetails(
			apiErr.StatusCode,
			TypeInternal,
			http.StatusText(apiErr.StatusCode),
			apiErr.Message,
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", apiErr.ErrorCode)
	}

	switch {
	case errors.Is(err, ErrRefreshInFlight):
		return NewRefreshInFlightError(nil, traceID)

	case errors.Is(err, ErrSnapshotPending):
		return NewSnapshotPendingError(nil, traceID)

	case errors.Is(err, ErrSheetUnreachable):
		return NewSheetUnreachableError(nil, traceID)

	case errors.Is(err, ErrSheetEmpty):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeSheetEmpty,
			"Sheet Empty",
			"The spreadsheet was reached but contained no sales rows.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "SHEET_EMPTY")

	case errors.Is(err, ErrCredentialsMissing):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeSheetUnavailable,
			"Credentials Missing",
			"No service account credentials found. Place credentials.json next to the executable.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "CREDENTIALS_MISSING")

	case errors.Is(err, ErrCredentialsInvalid):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeSheetUnavailable,
			"Credentials Invalid",
			"The service account credentials were rejected. Verify the key and its passphrase.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "CREDENTIALS_INVALID")

	case errors.Is(err, ErrTargetsUnavailable):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeSheetUnavailable,
			"Targets Unavailable",
			"The targets worksheet could not be read. Target attainment is unavailable.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "TARGETS_UNAVAILABLE")

	default:
		// Generic error
		return NewProblemDetails(
			http.StatusInternalServerError,
			"/errors/internal-error",
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
