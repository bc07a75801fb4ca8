package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"salespulse/internal/analytics"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/exporter"
	"salespulse/internal/middleware"
)

// ExportHandler streams dashboard views as CSV downloads.
type ExportHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	params       *middleware.QueryParamValidator
}

// NewExportHandler creates the export handler.
func NewExportHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *ExportHandler {
	return &ExportHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "export_handler")),
		errorHandler: errorHandler,
		params:       middleware.NewQueryParamValidator(logger, errorHandler),
	}
}

// Routes returns the export routes.
func (h *ExportHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{report}", h.Download)
	return r
}

// Download handles GET /api/export/{report}.
func (h *ExportHandler) Download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "report")
	report, err := h.buildReport(w, r, name)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "export failed",
			slog.String("report", name),
			slog.String("error", err.Error()))
		render.Render(w, r, apierrors.MapDataSourceError(err, traceID(r)))
		return
	}
	if report == nil {
		// Validation already wrote the problem response.
		return
	}

	fileName := report.FileName(time.Now().UTC())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	if err := report.WriteTo(w); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.ErrorContext(r.Context(), "export stream aborted",
			slog.String("report", name),
			slog.String("error", err.Error()))
	}
}

// buildReport resolves one report name into a rendered table. A nil
// report with a nil error means a validation failure was already
// written to the client.
func (h *ExportHandler) buildReport(w http.ResponseWriter, r *http.Request, name string) (*exporter.Report, error) {
	ctx := r.Context()

	switch name {
	case "summary":
		year, ok := h.params.ValidateInt(w, r, "year", minYear, maxYear, time.Now().Year())
		if !ok {
			return nil, nil
		}
		view, err := h.service.Summary(ctx, year, r.URL.Query().Get("channel"))
		if err != nil {
			return nil, err
		}
		return exporter.SummaryReport(view), nil

	case "price-ranges":
		year, ok := h.params.ValidateInt(w, r, "year", minYear, maxYear, time.Now().Year())
		if !ok {
			return nil, nil
		}
		view, err := h.service.PriceRanges(ctx, year, r.URL.Query().Get("channel"))
		if err != nil {
			return nil, err
		}
		return exporter.PriceRangeReport(view), nil

	case "rankings":
		year, ok := h.params.ValidateInt(w, r, "year", 0, maxYear, 0)
		if !ok {
			return nil, nil
		}
		dimension, ok := h.params.ValidateEnum(w, r, "dimension", allowedRankDims, "product")
		if !ok {
			return nil, nil
		}
		metric, ok := h.params.ValidateEnum(w, r, "metric", allowedMetrics, "value")
		if !ok {
			return nil, nil
		}
		n, ok := h.params.ValidateInt(w, r, "n", minRankN, maxRankN, 5)
		if !ok {
			return nil, nil
		}
		view, err := h.service.Rankings(ctx, year, analytics.Dimension(dimension), analytics.Metric(metric), n)
		if err != nil {
			return nil, err
		}
		return exporter.RankingsReport(view), nil

	case "unrecognized":
		view, err := h.service.Unrecognized(ctx)
		if err != nil {
			return nil, err
		}
		return exporter.UnrecognizedReport(view), nil

	default:
		h.errorHandler.HandleError(w, r,
			apierrors.ErrValidation("report", fmt.Sprintf("unknown report %q, expected one of: summary, price-ranges, rankings, unrecognized", name)))
		return nil, nil
	}
}
