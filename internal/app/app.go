package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tracker-service/common/logger"
	"tracker-service/common/telemetry"
	"tracker-service/internal/auth"
	"tracker-service/internal/config"
	"tracker-service/internal/grpcserver"
	"tracker-service/internal/health"
	"tracker-service/internal/invite"
	"tracker-service/internal/link"
	"tracker-service/internal/metrics"
	"tracker-service/internal/middleware"
	"tracker-service/internal/notification"
	"tracker-service/internal/stats"
	"tracker-service/internal/subject"
	"tracker-service/internal/task"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	grpc      *grpcserver.Server
	logger    *slog.Logger
	telemetry *telemetry.Telemetry
	stores    *stores
	transport *transport

	consumeCtx    context.Context
	stopConsuming context.CancelFunc
}

// New loads configuration from the environment and wires the application.
func New() (*App, error) {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	return NewWithConfig(context.Background(), cfg, slogLogger)
}

// NewWithConfig wires the application from an already loaded configuration.
func NewWithConfig(ctx context.Context, cfg *config.Config, slogLogger *slog.Logger) (*App, error) {
	tel, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:  cfg.Telemetry.Enabled,
		Endpoint: cfg.Telemetry.Endpoint,
		Interval: time.Duration(cfg.Telemetry.IntervalSeconds) * time.Second,
	}, ServiceName, Version, cfg.Env, slogLogger)
	if err != nil {
		return nil, err
	}
	common := tel.Metrics

	domainMetrics, err := metrics.New(common.Meter())
	if err != nil {
		return nil, fmt.Errorf("failed to create domain metrics: %w", err)
	}

	st, err := openStores(ctx, cfg.Database, common, slogLogger)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    slogLogger,
		telemetry: tel,
		stores:    st,
	}

	linkService := link.NewService(st.links, st.users)
	subjectService := subject.NewService(st.subjects, linkService)

	dispatcher := notification.NewDispatcher(
		st.notifications,
		st.users,
		linkService,
		notification.NewLogMailer(slogLogger),
		slogLogger,
		domainMetrics,
	)

	tr, err := openTransport(cfg, dispatcher, common, slogLogger)
	if err != nil {
		st.close()
		return nil, err
	}
	app.transport = tr
	slogLogger.Info("notification transport initialized", "transport", cfg.Notifications.Transport)

	taskService := task.NewService(st.tasks, subjectService, linkService, st.tx, tr.publisher, slogLogger)
	inviteService := invite.NewService(
		st.invites,
		linkService,
		st.users,
		st.tx,
		invite.NewCodeGenerator(cfg.Invite.CodeLength),
		tr.publisher,
		invite.Config{MaxAttempts: cfg.Invite.MaxAttempts},
		slogLogger,
	)
	statsService := stats.NewService(st.tasks, linkService, st.users)
	notificationService := notification.NewService(st.notifications)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	authService := auth.NewService(st.users, subjectService, st.tx, tokens)

	deps := append([]health.Dependency{{Name: "database", Check: st.ping}}, tr.deps...)
	healthHandler := health.NewHandler(common.Health, deps...)
	if err := common.Health.RegisterDependencies(ctx, common.Meter(), healthHandler.Names()); err != nil {
		slogLogger.Warn("failed to register dependency metrics", "error", err)
	}

	app.router.Use(chimw.RequestID)
	app.router.Use(chimw.Recoverer)
	app.router.Use(middleware.RequestLogger(slogLogger))
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	// Health endpoints (no auth required)
	healthHandler.RegisterRoutes(app.router)

	authHandler := auth.NewHandler(authService, slogLogger, domainMetrics)
	handlers := []interface{ RegisterRoutes(chi.Router) }{
		subject.NewHandler(subjectService, slogLogger),
		task.NewHandler(taskService, slogLogger, domainMetrics),
		invite.NewHandler(inviteService, slogLogger, domainMetrics),
		stats.NewHandler(statsService, slogLogger, domainMetrics),
		notification.NewHandler(notificationService, slogLogger),
	}

	app.router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(tokens, slogLogger))
			authHandler.RegisterProtectedRoutes(r)
			for _, h := range handlers {
				h.RegisterRoutes(r)
			}
		})
	})

	app.grpc = grpcserver.New(common.Grpc, slogLogger)

	slogLogger.Info("application initialized successfully")

	return app, nil
}

// Handler exposes the HTTP router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run starts the event consumer and the gRPC server in the background and
// blocks serving HTTP.
func (a *App) Run() error {
	a.consumeCtx, a.stopConsuming = context.WithCancel(context.Background())

	if a.transport.consume != nil {
		go func() {
			a.logger.Info("event consumer starting", "transport", a.config.Notifications.Transport)
			if err := a.transport.consume(a.consumeCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("event consumer error", "error", err)
			}
		}()
	}

	go func() {
		if err := a.grpc.Serve(a.config.Grpc.Port); err != nil {
			a.logger.Error("gRPC server error", "error", err)
		}
	}()

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.grpc.SetServing(false)

	var err error
	if a.server != nil {
		err = a.server.Shutdown(ctx)
	}

	a.grpc.Stop()

	if a.stopConsuming != nil {
		a.stopConsuming()
	}
	a.transport.close()
	a.stores.close()

	if shutdownErr := a.telemetry.Shutdown(ctx, a.logger); shutdownErr != nil {
		a.logger.Error("telemetry shutdown error", "error", shutdownErr)
	}

	return err
}
