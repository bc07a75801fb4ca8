package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredefinedDataSourceErrors(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		description string
	}{
		{
			name:        "ErrSheetUnreachable",
			err:         ErrSheetUnreachable,
			description: "should be sheet unreachable sentinel error",
		},
		{
			name:        "ErrSheetEmpty",
			err:         ErrSheetEmpty,
			description: "should be empty sheet sentinel error",
		},
		{
			name:        "ErrSnapshotPending",
			err:         ErrSnapshotPending,
			description: "should be snapshot pending sentinel error",
		},
		{
			name:        "ErrRefreshInFlight",
			err:         ErrRefreshInFlight,
			description: "should be refresh in flight sentinel error",
		},
		{
			name:        "ErrCredentialsMissing",
			err:         ErrCredentialsMissing,
			description: "should be credentials missing sentinel error",
		},
		{
			name:        "ErrCredentialsInvalid",
			err:         ErrCredentialsInvalid,
			description: "should be credentials invalid sentinel error",
		},
		{
			name:        "ErrTargetsUnavailable",
			err:         ErrTargetsUnavailable,
			description: "should be targets unavailable sentinel error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err, tt.description)
			assert.NotEmpty(t, tt.err.Error(), "error should have a message")
		})
	}
}

func TestProblemDetails_Render(t *testing.T) {
	tests := []struct {
		name       string
		problem    *ProblemDetails
		wantStatus int
	}{
		{
			name: "render 400 problem",
			problem: &ProblemDetails{
				Type:   "/errors/validation",
				Title:  "Validation Error",
				Status: http.StatusBadRequest,
				Detail: "Request validation failed",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "render 409 problem",
			problem: &ProblemDetails{
				Type:   TypeRefreshRunning,
				Title:  "Refresh Already Running",
				Status: http.StatusConflict,
				Detail: "A data refresh is already in progress",
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "render 503 problem",
			problem: &ProblemDetails{
				Type:   TypeSheetUnavailable,
				Title:  "Spreadsheet Unavailable",
				Status: http.StatusServiceUnavailable,
				Detail: "The spreadsheet source could not be reached",
			},
			wantStatus: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest("GET", "/test", nil)

			err := tt.problem.Render(w, r)
			assert.NoError(t, err)
		})
	}
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		problem  *ProblemDetails
		wantKeys []string
	}{
		{
			name: "marshal basic problem details",
			problem: &ProblemDetails{
				Type:       "/errors/validation",
				Title:      "Validation Error",
				Status:     http.StatusBadRequest,
				Detail:     "Request validation failed",
				Instance:   "/api/rankings",
				Extensions: make(map[string]interface{}),
			},
			wantKeys: []string{"type", "title", "status", "detail", "instance"},
		},
		{
			name: "marshal problem with extensions",
			problem: &ProblemDetails{
				Type:   TypeSheetUnavailable,
				Title:  "Spreadsheet Unavailable",
				Status: http.StatusServiceUnavailable,
				Detail: "The spreadsheet source could not be reached",
				Extensions: map[string]interface{}{
					"trace_id":    "12345",
					"error_code":  "SHEET_UNAVAILABLE",
					"retry_after": 60,
				},
			},
			wantKeys: []string{"type", "title", "status", "detail", "trace_id", "error_code", "retry_after"},
		},
		{
			name: "marshal problem without optional fields",
			problem: &ProblemDetails{
				Type:       "/errors/internal",
				Title:      "Internal Error",
				Status:     http.StatusInternalServerError,
				Extensions: make(map[string]interface{}),
			},
			wantKeys: []string{"type", "title", "status"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.problem)
			require.NoError(t, err)

			var result map[string]interface{}
			err = json.Unmarshal(data, &result)
			require.NoError(t, err)

			// Check that all expected keys are present
			for _, key := range tt.wantKeys {
				assert.Contains(t, result, key, "Expected key %s to be present", key)
			}

			// Verify standard fields
			assert.Equal(t, tt.problem.Type, result["type"])
			assert.Equal(t, tt.problem.Title, result["title"])
			assert.Equal(t, float64(tt.problem.Status), result["status"]) // JSON numbers are float64

			// Check optional fields
			if tt.problem.Detail != "" {
				assert.Equal(t, tt.problem.Detail, result["detail"])
			}
			if tt.problem.Instance != "" {
				assert.Equal(t, tt.problem.Instance, result["instance"])
			}
		})
	}
}

func TestNewProblemDetails(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		problemType string
		title       string
		detail      string
		instance    string
	}{
		{
			name:        "create validation problem",
			status:      http.StatusBadRequest,
			problemType: "/errors/validation",
			title:       "Validation Failed",
			detail:      "Request validation failed",
			instance:    "/api/rankings",
		},
		{
			name:        "create sheet problem",
			status:      http.StatusServiceUnavailable,
			problemType: TypeSheetUnavailable,
			title:       "Spreadsheet Unavailable",
			detail:      "The spreadsheet source could not be reached",
			instance:    "/api/dashboard",
		},
		{
			name:        "create minimal problem",
			status:      http.StatusInternalServerError,
			problemType: "/errors/internal",
			title:       "Internal Error",
			detail:      "",
			instance:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := NewProblemDetails(tt.status, tt.problemType, tt.title, tt.detail, tt.instance)

			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, tt.problemType, problem.Type)
			assert.Equal(t, tt.title, problem.Title)
			assert.Equal(t, tt.detail, problem.Detail)
			assert.Equal(t, tt.instance, problem.Instance)
			assert.NotNil(t, problem.Extensions)
			assert.Empty(t, problem.Extensions)
		})
	}
}

func TestProblemDetails_WithExtension(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value interface{}
	}{
		{
			name:  "add string extension",
			key:   "trace_id",
			value: "abc123",
		},
		{
			name:  "add integer extension",
			key:   "retry_after",
			value: 60,
		},
		{
			name:  "add boolean extension",
			key:   "retryable",
			value: true,
		},
		{
			name:  "add complex extension",
			key:   "sheets_attempted",
			value: []string{"2024", "2025"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := NewProblemDetails(
				http.StatusBadRequest,
				"/errors/test",
				"Test Error",
				"Test detail",
				"/test",
			)

			result := problem.WithExtension(tt.key, tt.value)

			// Should return the same instance
			assert.Same(t, problem, result)

			// Should have the extension
			assert.Equal(t, tt.value, result.Extensions[tt.key])
		})
	}
}

func TestProblemDetails_WithExtension_Chaining(t *testing.T) {
	t.Run("chain multiple extensions", func(t *testing.T) {
		problem := NewProblemDetails(
			http.StatusBadRequest,
			"/errors/test",
			"Test Error",
			"Test detail",
			"/test",
		)

		result := problem.
			WithExtension("trace_id", "12345").
			WithExtension("error_code", "TEST_ERROR").
			WithExtension("retry_after", 30)

		// Should be the same instance
		assert.Same(t, problem, result)

		// Should have all extensions
		assert.Equal(t, "12345", result.Extensions["trace_id"])
		assert.Equal(t, "TEST_ERROR", result.Extensions["error_code"])
		assert.Equal(t, 30, result.Extensions["retry_after"])
	})
}

func TestNewRefreshInFlightError(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		problem := NewRefreshInFlightError(nil, "trace-1")

		assert.Equal(t, http.StatusConflict, problem.Status)
		assert.Equal(t, TypeRefreshRunning, problem.Type)
		assert.Equal(t, "Refresh Already Running", problem.Title)
		assert.Equal(t, "trace-1", problem.Extensions["trace_id"])
		assert.Equal(t, "refresh_in_flight", problem.Extensions["error_type"])
	})

	t.Run("with snapshot details", func(t *testing.T) {
		fetched := time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC)
		next := fetched.Add(time.Hour)
		details := &SnapshotDetails{
			FetchedAt:   &fetched,
			NextRefresh: &next,
			RetryAfter:  30,
		}

		problem := NewRefreshInFlightError(details, "trace-2")

		assert.Equal(t, fetched.Format(time.RFC3339), problem.Extensions["last_snapshot_at"])
		assert.Equal(t, next.Format(time.RFC3339), problem.Extensions["next_scheduled_refresh"])
		assert.Equal(t, 30, problem.Extensions["retry_after"])
	})
}

func TestNewSnapshotPendingError(t *testing.T) {
	problem := NewSnapshotPendingError(nil, "trace-3")

	assert.Equal(t, http.StatusServiceUnavailable, problem.Status)
	assert.Equal(t, TypeSnapshotPending, problem.Type)
	assert.Equal(t, "Snapshot Pending", problem.Title)
	assert.Equal(t, "trace-3", problem.Extensions["trace_id"])
	assert.Equal(t, 10, problem.Extensions["retry_after"])

	// Caller-supplied retry hint wins
	withHint := NewSnapshotPendingError(&SnapshotDetails{RetryAfter: 25}, "trace-4")
	assert.Equal(t, 25, withHint.Extensions["retry_after"])
}

func TestNewSheetUnreachableError(t *testing.T) {
	t.Run("without details", func(t *testing.T) {
		problem := NewSheetUnreachableError(nil, "trace-5")

		assert.Equal(t, http.StatusServiceUnavailable, problem.Status)
		assert.Equal(t, TypeSheetUnavailable, problem.Type)
		assert.Equal(t, "Spreadsheet Unavailable", problem.Title)
		assert.Equal(t, "trace-5", problem.Extensions["trace_id"])
		assert.Equal(t, 60, problem.Extensions["retry_after"])
	})

	t.Run("with stale snapshot details", func(t *testing.T) {
		fetched := time.Date(2025, 8, 1, 6, 0, 0, 0, time.UTC)
		details := &SnapshotDetails{
			FetchedAt:   &fetched,
			RecordCount: 1200,
			Sheets:      []string{"2024", "2025"},
		}

		problem := NewSheetUnreachableError(details, "trace-6")

		assert.Equal(t, fetched.Format(time.RFC3339), problem.Extensions["stale_snapshot_at"])
		assert.Equal(t, 1200, problem.Extensions["stale_record_count"])
		assert.Equal(t, []string{"2024", "2025"}, problem.Extensions["sheets_attempted"])
	})
}

func TestMapDataSourceError(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		traceID        string
		wantStatus     int
		wantType       string
		wantTitle      string
		wantExtensions map[string]interface{}
	}{
		{
			name:       "map refresh in flight error",
			err:        ErrRefreshInFlight,
			traceID:    "trace-123",
			wantStatus: http.StatusConflict,
			wantType:   TypeRefreshRunning,
			wantTitle:  "Refresh Already Running",
			wantExtensions: map[string]interface{}{
				"trace_id":   "trace-123",
				"error_type": "refresh_in_flight",
			},
		},
		{
			name:       "map snapshot pending error",
			err:        ErrSnapshotPending,
			traceID:    "trace-456",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSnapshotPending,
			wantTitle:  "Snapshot Pending",
			wantExtensions: map[string]interface{}{
				"trace_id": "trace-456",
			},
		},
		{
			name:       "map sheet unreachable error",
			err:        ErrSheetUnreachable,
			traceID:    "trace-789",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSheetUnavailable,
			wantTitle:  "Spreadsheet Unavailable",
			wantExtensions: map[string]interface{}{
				"trace_id": "trace-789",
			},
		},
		{
			name:       "map empty sheet error",
			err:        ErrSheetEmpty,
			traceID:    "trace-abc",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSheetEmpty,
			wantTitle:  "Sheet Empty",
			wantExtensions: map[string]interface{}{
				"trace_id":   "trace-abc",
				"error_code": "SHEET_EMPTY",
			},
		},
		{
			name:       "map credentials missing error",
			err:        ErrCredentialsMissing,
			traceID:    "trace-def",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSheetUnavailable,
			wantTitle:  "Credentials Missing",
			wantExtensions: map[string]interface{}{
				"trace_id":   "trace-def",
				"error_code": "CREDENTIALS_MISSING",
			},
		},
		{
			name:       "map credentials invalid error",
			err:        ErrCredentialsInvalid,
			traceID:    "trace-ghi",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSheetUnavailable,
			wantTitle:  "Credentials Invalid",
			wantExtensions: map[string]interface{}{
				"trace_id":   "trace-ghi",
				"error_code": "CREDENTIALS_INVALID",
			},
		},
		{
			name:       "map targets unavailable error",
			err:        ErrTargetsUnavailable,
			traceID:    "trace-jkl",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSheetUnavailable,
			wantTitle:  "Targets Unavailable",
			wantExtensions: map[string]interface{}{
				"trace_id":   "trace-jkl",
				"error_code": "TARGETS_UNAVAILABLE",
			},
		},
		{
			name:       "map wrapped sentinel error",
			err:        fmt.Errorf("refreshing dashboard: %w", ErrSheetUnreachable),
			traceID:    "trace-mno",
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSheetUnavailable,
			wantTitle:  "Spreadsheet Unavailable",
		},
		{
			name:       "map unknown error to internal",
			err:        fmt.Errorf("some unexpected failure"),
			traceID:    "trace-pqr",
			wantStatus: http.StatusInternalServerError,
			wantType:   "/errors/internal-error",
			wantTitle:  "Internal Server Error",
			wantExtensions: map[string]interface{}{
				"trace_id":   "trace-pqr",
				"error_code": "INTERNAL_ERROR",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := MapDataSourceError(tt.err, tt.traceID)
			require.NotNil(t, renderer)

			problem, ok := renderer.(*ProblemDetails)
			require.True(t, ok, "renderer should be ProblemDetails")

			assert.Equal(t, tt.wantStatus, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantTitle, problem.Title)
			assert.NotEmpty(t, problem.Detail)

			for key, want := range tt.wantExtensions {
				assert.Equal(t, want, problem.Extensions[key], "extension %s", key)
			}
		})
	}
}

func TestMapDataSourceError_APIError(t *testing.T) {
	apiErr := New(http.StatusConflict, "REFRESH_IN_FLIGHT", "A refresh is already running")

	renderer := MapDataSourceError(apiErr, "trace-api")
	problem, ok := renderer.(*ProblemDetails)
	require.True(t, ok)

	assert.Equal(t, http.StatusConflict, problem.Status)
	assert.Equal(t, "A refresh is already running", problem.Detail)
	assert.Equal(t, "REFRESH_IN_FLIGHT", problem.Extensions["error_code"])
	assert.Equal(t, "trace-api", problem.Extensions["trace_id"])
}

func TestMapDataSourceError_RenderIntegration(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/refresh", nil)

	err := render.Render(w, r, MapDataSourceError(ErrRefreshInFlight, "trace-render"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))

	assert.Equal(t, TypeRefreshRunning, body["type"])
	assert.Equal(t, "trace-render", body["trace_id"])
	assert.EqualValues(t, http.StatusConflict, body["status"])
}
