package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"salespulse/internal/cache"
	"salespulse/internal/config"
	apierrors "salespulse/internal/errors"
	"salespulse/internal/infrastructure"
	custommw "salespulse/internal/middleware"
	"salespulse/internal/services"
	"salespulse/internal/sheets"
	handlers "salespulse/internal/transport/http"
	ws "salespulse/internal/websocket"
	"salespulse/pkg/contracts"
)

// AppName identifies the service in startup logs.
const AppName = "SalesPulse"

// Build identity from the shared contract; the commit and build time
// come in through ldflags on pkg/contracts.
var (
	Version   = contracts.Version
	Commit    = contracts.GitCommit
	BuildTime = contracts.BuildTime
)

// Application wires configuration, the data source, the business layer
// and the HTTP surface into one runnable unit.
type Application struct {
	Config *config.Config
	Logger *slog.Logger
	Router *chi.Mux
	Server *http.Server

	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	SystemMetrics *infrastructure.SystemMetricsCollector

	Store     *cache.Cache
	Source    *sheets.Client
	Hub       *ws.Hub
	Dashboard *services.DashboardService
	Health    *services.HealthService

	refreshCancel context.CancelFunc
}

// NewApplication loads configuration and builds the full dependency
// graph. It fails fast on anything the server cannot run without: the
// config, the logger and the sheets client.
func NewApplication(ctx context.Context) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.Int("port", cfg.Server.Port))

	paths, err := config.GetPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution()

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	// Business metrics are advisory. Every recorder is nil-safe, so a
	// meter failure degrades observability without taking the app down.
	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		logger.Warn("business metrics unavailable", slog.String("error", err.Error()))
		metrics = nil
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(ctx); err != nil {
		return nil, err
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

func (a *Application) initializeServices(ctx context.Context) error {
	cfg := a.Config

	if cfg.Cache.Enabled {
		a.Store = cache.New(cfg.Cache.ComputeTTL, cfg.Cache.MaxEntries)
	}

	source, err := sheets.NewClient(ctx, sheets.Config{
		SheetURL:        cfg.Sheets.SheetURL,
		TargetsSheet:    cfg.Sheets.TargetsSheet,
		CredentialsFile: cfg.GetCredentialsFile(),
		CredentialsKey:  cfg.Sheets.CredentialsKey,
		Timeout:         cfg.Sheets.FetchTimeout,
	}, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize sheets client: %w", err)
	}
	a.Source = source

	a.Hub = ws.NewHub(a.Metrics, a.Logger)
	a.Hub.Start()

	a.Dashboard = services.NewDashboardService(cfg, source, a.Store, a.Hub, a.Metrics, a.Logger)

	if system, err := infrastructure.NewSystemMetricsCollector(a.OTelProviders.Meter, 30*time.Second); err != nil {
		a.Logger.Warn("system metrics unavailable", slog.String("error", err.Error()))
	} else {
		a.SystemMetrics = system
	}

	a.Health = services.NewHealthService(services.VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
	}, a.Dashboard, source, a.Store, a.Hub, a.SystemMetrics)

	return nil
}

// setupRouter builds the chi router. The WebSocket route and /metrics
// stay outside the main middleware group: the timeout and metrics
// wrappers would break the upgraded connection.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.With(custommw.WebSocketTraceMiddleware(a.Logger)).HandleFunc("/ws", a.handleWebSocket)

	r.Group(func(r chi.Router) {
		if otelMiddleware, err := custommw.NewOTelMiddleware(a.OTelProviders); err != nil {
			a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}
		r.Use(custommw.BusinessMetricsMiddleware(a.Metrics))
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(a.corsConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
		validation := custommw.NewValidationMiddleware(a.Logger, errorHandler)

		r.Route("/api", func(r chi.Router) {
			r.Use(validation.ValidateRequest)

			dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, a.Logger, errorHandler)
			r.Mount("/dashboard", dashboardHandler.Routes())

			exportHandler := handlers.NewExportHandler(a.Dashboard, a.Logger, errorHandler)
			r.Mount("/export", exportHandler.Routes())

			healthHandler := handlers.NewHealthHandler(a.Health)
			r.Mount("/health", healthHandler.Routes())
			r.Get("/version", healthHandler.GetVersion)
		})
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

func (a *Application) corsConfig() custommw.CORSConfig {
	return custommw.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			"X-Request-ID",
			"X-Requested-With",
		},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// handleWebSocket upgrades the connection and hands it to the hub.
func (a *Application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	reqID := custommw.GetReqID(r.Context())
	if reqID == "" {
		reqID = fmt.Sprintf("ws-%d", time.Now().UnixNano())
	}
	ctx := infrastructure.WithTraceID(r.Context(), reqID)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Same-host tools and curl send no Origin header.
			if origin == "" {
				return true
			}
			for _, allowed := range a.Config.Security.AllowedOrigins {
				if origin == allowed {
					return true
				}
			}
			a.Logger.WarnContext(ctx, "websocket origin rejected",
				slog.String("origin", origin))
			return false
		},
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.Logger.ErrorContext(ctx, "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	a.Logger.InfoContext(ctx, "websocket client connected",
		slog.String("remote_addr", r.RemoteAddr))

	ws.ServeWS(a.Hub, conn, reqID)
}

// Start launches the background pieces and the HTTP listener. A server
// failure cancels the supplied context so Run can unwind.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	refreshCtx, refreshCancel := context.WithCancel(context.Background())
	a.refreshCancel = refreshCancel

	if a.SystemMetrics != nil {
		a.SystemMetrics.Start(refreshCtx)
	}

	if a.Config.Sheets.RefreshInterval > 0 {
		a.Dashboard.StartRefreshLoop(refreshCtx)
	} else {
		// No ticker configured; still load the first snapshot.
		go func() {
			if _, err := a.Dashboard.Refresh(refreshCtx, "startup"); err != nil {
				a.Logger.Error("initial refresh failed", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.Duration("refresh_interval", a.Config.Sheets.RefreshInterval))

	return nil
}

// Stop shuts the application down in reverse dependency order.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.refreshCancel != nil {
		a.refreshCancel()
	}
	a.Dashboard.Stop()
	a.Hub.Stop()

	if a.SystemMetrics != nil {
		a.SystemMetrics.Stop()
	}
	if a.Store != nil {
		a.Store.Stop()
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "application shutdown complete")
	return nil
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "received interrupt signal")
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}
