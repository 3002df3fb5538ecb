package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"gapminder/internal/config"
	apierrors "gapminder/internal/errors"
	"gapminder/internal/exporter"
	"gapminder/internal/files"
	"gapminder/internal/infrastructure"
	custommw "gapminder/internal/middleware"
	"gapminder/internal/operations"
	"gapminder/internal/services"
	"gapminder/internal/storage"
	handlers "gapminder/internal/transport/http"
	"gapminder/pkg/contracts"
)

// AppName is reported in startup logs and telemetry.
const AppName = "gapminder"

// Application holds every wired component of a gapminder process. The CLI
// commands build one and use the parts they need.
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Files         *files.Manager
	Store         *storage.SQLiteStore
	Sinks         []operations.Sink
	Manager       *operations.Manager
	Sources       []operations.SourceSpec

	DataService      *services.DataService
	OperationService *services.OperationService
	HealthService    *services.HealthService

	Router *chi.Mux
	Server *http.Server

	closers []io.Closer
}

// Option customizes an Application before it is wired.
type Option func(*options)

type options struct {
	loader  operations.LoaderFunc
	closers []io.Closer
}

// WithLoader replaces the source loader, mainly for tests.
func WithLoader(l operations.LoaderFunc) Option {
	return func(o *options) { o.loader = l }
}

// WithCloser hands c to the application; Close releases it last.
func WithCloser(c io.Closer) Option {
	return func(o *options) { o.closers = append(o.closers, c) }
}

// NewApplication wires the application from a validated configuration.
func NewApplication(cfg *config.Config, paths *config.Paths, logger *slog.Logger, opts ...Option) (*Application, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger.Info("application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	if err := paths.EnsureDirectories(); err != nil {
		return nil, apierrors.NewStorageError("failed to ensure directories", err)
	}
	paths.LogPathResolution(logger)

	providers, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFromTelemetry(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: providers,
		Files:         files.NewManager(paths, logger),
		closers:       o.closers,
	}

	if err := a.initializeSinks(); err != nil {
		a.Close(context.Background())
		return nil, err
	}
	if err := a.initializeServices(o); err != nil {
		a.Close(context.Background())
		return nil, err
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeSinks creates one exporter per configured output format. The
// SQLite store doubles as the run history recorder.
func (a *Application) initializeSinks() error {
	for _, format := range a.Config.Output.Formats {
		switch format {
		case config.FormatCSV:
			a.Sinks = append(a.Sinks, exporter.NewCSVWriter(a.Files, a.Logger,
				exporter.WithLongTables(a.Config.Output.WriteLong),
				exporter.WithBOM(a.Config.Output.CSVBOM)))
		case config.FormatXLSX:
			a.Sinks = append(a.Sinks, exporter.NewXLSXWriter(a.Files, a.Logger))
		case config.FormatSQLite:
			store, err := storage.OpenSQLite(a.Paths.DatabaseFile, a.Logger)
			if err != nil {
				return err
			}
			a.Store = store
			a.Sinks = append(a.Sinks, store)
		}
	}

	names := make([]string, len(a.Sinks))
	for i, s := range a.Sinks {
		names[i] = s.Name()
	}
	a.Logger.Info("sinks configured", slog.Any("sinks", names))
	return nil
}

// initializeServices initializes the pipeline manager and the services
func (a *Application) initializeServices(o options) error {
	runCfg, sources, err := operations.ConfigFromApp(a.Config, a.Paths)
	if err != nil {
		return apierrors.NewConfigError("invalid pipeline configuration", err)
	}
	a.Sources = sources

	tracer, err := operations.NewPipelineTracer(a.OTelProviders)
	if err != nil {
		return err
	}

	managerOpts := []operations.Option{
		operations.WithConfig(runCfg),
		operations.WithSinks(a.Sinks...),
		operations.WithTracer(tracer),
		operations.WithLogger(a.Logger),
	}
	if o.loader != nil {
		managerOpts = append(managerOpts, operations.WithLoader(o.loader))
	}

	var history services.RunHistory
	if a.Store != nil {
		managerOpts = append(managerOpts, operations.WithRecorders(a.Store))
		history = a.Store
	}

	a.Manager, err = operations.NewManager(managerOpts...)
	if err != nil {
		return err
	}

	a.DataService = services.NewDataService(a.Logger)
	a.OperationService = services.NewOperationService(a.Manager, sources, a.DataService, history, a.Logger)
	a.HealthService = services.NewHealthService(a.Paths, a.DataService, a.OperationService, a.Logger)
	return nil
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID, OTel, logger, recoverer, security headers, rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, false)

	r.Use(custommw.RequestID)

	otelMiddleware, err := custommw.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		a.Logger.Error("failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
	} else {
		r.Use(otelMiddleware.Handler)
	}

	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(errorHandler))
	r.Use(custommw.SecurityHeaders)

	if rl := a.Config.Server.RateLimit; rl.Enabled {
		r.Use(custommw.NewRateLimiter(rl.RPS, rl.Burst, errorHandler, a.Logger).Handler)
	}

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	dataHandler := handlers.NewDataHandler(a.DataService, a.Logger, errorHandler)
	operationsHandler := handlers.NewOperationsHandler(a.OperationService, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/version", healthHandler.Version)
		})

		r.Route("/v1", func(r chi.Router) {
			r.Mount("/", dataHandler.Routes())
			r.Mount("/runs", operationsHandler.Routes())
		})
	})

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// RunPipeline runs the pipeline once over the configured sources and
// publishes the result for the API.
func (a *Application) RunPipeline(ctx context.Context) (*operations.RunReport, error) {
	return a.OperationService.Trigger(ctx)
}

// Restore publishes the canonical table persisted by the SQLite store, if
// one is configured.
func (a *Application) Restore(ctx context.Context) error {
	if a.Store == nil {
		return nil
	}
	return a.DataService.Restore(ctx, a.Store)
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts the server down gracefully.
func (a *Application) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}
	return a.serve(ctx, ln)
}

func (a *Application) serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server listening", slog.String("addr", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	a.Logger.InfoContext(ctx, "shutting down server")
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return <-errCh
}

// Close releases the store and flushes telemetry.
func (a *Application) Close(ctx context.Context) error {
	var errs []error
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if a.OTelProviders != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
		}
	}
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
