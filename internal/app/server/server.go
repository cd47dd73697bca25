package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"leavemgmt/internal/domain/audit"
	"leavemgmt/internal/domain/auth"
	"leavemgmt/internal/domain/calendar"
	"leavemgmt/internal/domain/consumption"
	"leavemgmt/internal/domain/holidays"
	"leavemgmt/internal/domain/leave"
	"leavemgmt/internal/domain/notifications"
	"leavemgmt/internal/domain/reports"
	"leavemgmt/internal/domain/users"
	"leavemgmt/internal/platform/config"
	"leavemgmt/internal/platform/crypto"
	"leavemgmt/internal/platform/db"
	"leavemgmt/internal/platform/email"
	"leavemgmt/internal/platform/jobs"
	"leavemgmt/internal/platform/logging"
	"leavemgmt/internal/platform/metrics"
	"leavemgmt/internal/transport/http/api"
	audithandler "leavemgmt/internal/transport/http/handlers/audit"
	authhandler "leavemgmt/internal/transport/http/handlers/auth"
	consumptionhandler "leavemgmt/internal/transport/http/handlers/consumption"
	holidayshandler "leavemgmt/internal/transport/http/handlers/holidays"
	leavehandler "leavemgmt/internal/transport/http/handlers/leave"
	leavetypeshandler "leavemgmt/internal/transport/http/handlers/leavetypes"
	notificationshandler "leavemgmt/internal/transport/http/handlers/notifications"
	reportshandler "leavemgmt/internal/transport/http/handlers/reports"
	"leavemgmt/internal/transport/http/middleware"
)

const devJWTSecret = "dev-only-jwt-secret"

// Services is everything the HTTP layer needs.
type Services struct {
	Auth          *auth.Service
	Users         *users.Service
	Leave         *leave.Service
	LeaveTypes    *leave.TypeService
	Holidays      *holidays.Service
	Notifications *notifications.Service
	Consumption   *consumption.Service
	Reports       *reports.Service
	Audit         *audit.Service
	Perms         middleware.PermissionStore
	Jobs          *jobs.Service
	Accrual       jobs.RunFunc
	Metrics       *metrics.Collector
}

type App struct {
	Config config.Config
	Logger *zap.Logger
	DB     *pgxpool.Pool
	Jobs   *jobs.Service
	Router http.Handler
}

func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer app.DB.Close()

	return app.Serve(ctx)
}

// New connects to the database, prepares the schema and builds the router.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}
	if cfg.RunSeed {
		if err := db.Seed(ctx, pool, cfg, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	svcs, err := buildServices(cfg, pool, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &App{
		Config: cfg,
		Logger: logger,
		DB:     pool,
		Jobs:   svcs.Jobs,
		Router: NewRouter(cfg, logger, svcs, pool.Ping),
	}, nil
}

func buildServices(cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (Services, error) {
	sealer, err := crypto.NewSealer(cfg.DataEncryptionKey)
	if err != nil {
		return Services{}, fmt.Errorf("data encryption key: %w", err)
	}
	enforcer, err := auth.NewEnforcer()
	if err != nil {
		return Services{}, err
	}
	secret := cfg.JWTSecret
	if secret == "" {
		logger.Warn("JWT_SECRET not set; using development secret")
		secret = devJWTSecret
	}

	collector := metrics.New()
	holidayStore := holidays.NewStore(pool)
	resolver := calendar.NewResolver(holidayStore, cfg.WeeklyHolidays, calendar.WithLookupTimeout(cfg.HolidayLookupTimeout))

	usersSvc := users.NewService(users.NewStore(pool), logger)
	notificationsSvc := notifications.New(notifications.NewStore(pool), email.New(cfg, logger), cfg.EmailFrom, logger)
	consumptionSvc := consumption.NewService(consumption.NewStore(pool), logger)
	holidaysSvc := holidays.NewService(holidayStore, resolver, collector, logger)
	leaveStore := leave.NewStore(pool)

	jobsSvc := jobs.New(pool, logger)
	announcer := holidays.NewAnnouncer(holidaysSvc, holidayStore, usersSvc, notificationsSvc, logger)
	accrual := func(ctx context.Context) (any, error) {
		return leave.ApplyMonthlyAccruals(ctx, leaveStore, time.Now(), logger)
	}
	jobsSvc.Schedule(jobs.Task{
		Type:       jobs.JobHolidayAnnounce,
		Interval:   cfg.HolidayAnnounceInterval,
		RunOnStart: true,
		Run: func(ctx context.Context) (any, error) {
			return announcer.Run(ctx, time.Now())
		},
	})
	jobsSvc.Schedule(jobs.Task{Type: jobs.JobLeaveAccrual, Interval: cfg.LeaveAccrualInterval, Run: accrual, RunOnStart: true})

	return Services{
		Auth:  auth.NewService(auth.NewStore(pool), sealer, secret, cfg.TokenTTL, logger),
		Users: usersSvc,
		Leave: leave.NewService(leave.Deps{
			Store:       leaveStore,
			Types:       leaveStore,
			Resolver:    resolver,
			Directory:   usersSvc,
			Consumption: consumptionSvc,
			Notifier:    notificationsSvc,
			Logger:      logger,
		}),
		LeaveTypes:    leave.NewTypeService(leaveStore, logger),
		Holidays:      holidaysSvc,
		Notifications: notificationsSvc,
		Consumption:   consumptionSvc,
		Reports:       reports.NewService(reports.NewStore(pool), logger),
		Audit:         audit.New(pool, logger),
		Perms:         enforcer,
		Jobs:          jobsSvc,
		Accrual:       accrual,
		Metrics:       collector,
	}, nil
}

// NewRouter mounts middleware, probes and the /api/v1 routes. ready backs
// /readyz and may be nil.
func NewRouter(cfg config.Config, logger *zap.Logger, s Services, ready func(context.Context) error) http.Handler {
	var stats middleware.StatusRecorder
	if cfg.MetricsEnabled && s.Metrics != nil {
		stats = s.Metrics
	}
	secret := cfg.JWTSecret
	if secret == "" {
		secret = devJWTSecret
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger, stats))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.IsProduction()))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.Auth(secret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				http.Error(w, "db not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if stats != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, s.Metrics.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(s.Auth, s.Users, s.Perms, s.Audit).RegisterRoutes(r)
		leavehandler.NewHandler(s.Leave, s.Perms, s.Audit).RegisterRoutes(r)

		typesHandler := leavetypeshandler.NewHandler(s.LeaveTypes, s.Perms, s.Audit)
		typesHandler.Jobs = s.Jobs
		typesHandler.Accrual = s.Accrual
		typesHandler.RegisterRoutes(r)

		holidayshandler.NewHandler(s.Holidays, s.Perms, s.Audit).RegisterRoutes(r)
		notificationshandler.NewHandler(s.Notifications, s.Perms).RegisterRoutes(r)
		consumptionhandler.NewHandler(s.Consumption, s.Perms, s.Audit).RegisterRoutes(r)
		reportshandler.NewHandler(s.Reports, s.Perms).RegisterRoutes(r)
		audithandler.NewHandler(s.Audit, s.Perms).RegisterRoutes(r)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})

	return router
}

// Serve runs the HTTP server and background jobs until ctx is cancelled,
// then drains both.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	a.Jobs.Start(gctx)

	g.Go(func() error {
		a.Logger.Info("leave management server listening", zap.String("addr", a.Config.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.Logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Jobs.Wait()
	return err
}
