package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/analytics"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	"salespulse/internal/middleware"
)

// Query parameter vocabularies. Anything outside these maps to a 400
// problem before the service is touched.
var (
	allowedMetrics  = []string{"value", "units", "orders", "average"}
	allowedRankDims = []string{"product", "listing", "channel", "category", "price_bucket"}
	allowedPeriods  = []string{"month", "retail_week"}
)

const (
	minYear  = 2000
	maxYear  = 2100
	minRankN = 1
	maxRankN = 100
)

// DashboardHandler serves the /api/dashboard routes.
type DashboardHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *middleware.QueryParamValidator
}

// NewDashboardHandler creates the handler with RFC 7807 error handling.
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the dashboard routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/summary", h.GetSummary)
	r.Get("/yoy", h.GetYoY)
	r.Get("/price-ranges", h.GetPriceRanges)
	r.Get("/rankings", h.GetRankings)
	r.Get("/seasonality", h.GetSeasonality)
	r.Get("/patterns", h.GetPatterns)
	r.Get("/targets", h.GetTargets)
	r.Get("/unrecognized", h.GetUnrecognized)
	r.Get("/status", h.GetStatus)
	r.Post("/refresh", middleware.RefreshTraceHandler("manual", h.Refresh))

	return r
}

// traceID pulls the request trace for problem instances, falling back
// to the request id.
func traceID(r *http.Request) string {
	if id := infrastructure.GetTraceID(r.Context()); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}

// renderServiceError maps data-source conditions onto problem details.
func (h *DashboardHandler) renderServiceError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "dashboard query failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
	render.Render(w, r, apierrors.MapDataSourceError(err, traceID(r)))
}

// GetSummary handles GET /api/dashboard/summary.
func (h *DashboardHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	year, ok := h.params.ValidateInt(w, r, "year", minYear, maxYear, time.Now().Year())
	if !ok {
		return
	}
	channel := r.URL.Query().Get("channel")

	view, err := h.service.Summary(r.Context(), year, channel)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetYoY handles GET /api/dashboard/yoy.
func (h *DashboardHandler) GetYoY(w http.ResponseWriter, r *http.Request) {
	year, ok := h.params.ValidateInt(w, r, "year", minYear, maxYear, time.Now().Year())
	if !ok {
		return
	}
	prior, ok := h.params.ValidateInt(w, r, "prior", minYear, maxYear, year-1)
	if !ok {
		return
	}
	period, ok := h.params.ValidateEnum(w, r, "period", allowedPeriods, "month")
	if !ok {
		return
	}
	metric, ok := h.params.ValidateEnum(w, r, "metric", allowedMetrics, "value")
	if !ok {
		return
	}

	view, err := h.service.YoY(r.Context(), year, prior, analytics.Dimension(period), analytics.Metric(metric))
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetPriceRanges handles GET /api/dashboard/price-ranges.
func (h *DashboardHandler) GetPriceRanges(w http.ResponseWriter, r *http.Request) {
	year, ok := h.params.ValidateInt(w, r, "year", minYear, maxYear, time.Now().Year())
	if !ok {
		return
	}
	channel := r.URL.Query().Get("channel")

	view, err := h.service.PriceRanges(r.Context(), year, channel)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetRankings handles GET /api/dashboard/rankings.
func (h *DashboardHandler) GetRankings(w http.ResponseWriter, r *http.Request) {
	year, ok := h.params.ValidateInt(w, r, "year", 0, maxYear, 0)
	if !ok {
		return
	}
	dimension, ok := h.params.ValidateEnum(w, r, "dimension", allowedRankDims, "product")
	if !ok {
		return
	}
	metric, ok := h.params.ValidateEnum(w, r, "metric", allowedMetrics, "value")
	if !ok {
		return
	}
	n, ok := h.params.ValidateInt(w, r, "n", minRankN, maxRankN, 5)
	if !ok {
		return
	}

	view, err := h.service.Rankings(r.Context(), year, analytics.Dimension(dimension), analytics.Metric(metric), n)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetSeasonality handles GET /api/dashboard/seasonality.
func (h *DashboardHandler) GetSeasonality(w http.ResponseWriter, r *http.Request) {
	period, ok := h.params.ValidateEnum(w, r, "period", allowedPeriods, "month")
	if !ok {
		return
	}

	view, err := h.service.Seasonality(r.Context(), analytics.Dimension(period))
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetPatterns handles GET /api/dashboard/patterns.
func (h *DashboardHandler) GetPatterns(w http.ResponseWriter, r *http.Request) {
	year, ok := h.params.ValidateInt(w, r, "year", 0, maxYear, 0)
	if !ok {
		return
	}
	channel := r.URL.Query().Get("channel")

	view, err := h.service.Patterns(r.Context(), year, channel)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetTargets handles GET /api/dashboard/targets.
func (h *DashboardHandler) GetTargets(w http.ResponseWriter, r *http.Request) {
	year, ok := h.params.ValidateInt(w, r, "year", minYear, maxYear, time.Now().Year())
	if !ok {
		return
	}

	view, err := h.service.TargetVariance(r.Context(), year)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetUnrecognized handles GET /api/dashboard/unrecognized.
func (h *DashboardHandler) GetUnrecognized(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.Unrecognized(r.Context())
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	render.JSON(w, r, view)
}

// GetStatus handles GET /api/dashboard/status.
func (h *DashboardHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Status())
}

// Refresh handles POST /api/dashboard/refresh.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "manual refresh requested",
		slog.String("request_id", middleware.GetReqID(r.Context())))

	report, err := h.service.Refresh(r.Context(), "manual")
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, report)
}
