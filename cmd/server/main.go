// Package main is the entry point of the registration site.
//
// Students sign in with their portal credentials, pick a class, a goal, their
// strengths and a desired role. The instructor signs in with basic auth and
// forms balanced groups from the registrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"

	"github.com/tlu-hub/tlu-group-hub/config"

	// Application layer
	"github.com/tlu-hub/tlu-group-hub/internal/application/command"
	"github.com/tlu-hub/tlu-group-hub/internal/application/query"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/grouping"
	"github.com/tlu-hub/tlu-group-hub/internal/domain/registration"

	// Infrastructure layer
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/external/tlu"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/metrics"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/csvstore"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/memory"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/postgres"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/persistence/redis"
	"github.com/tlu-hub/tlu-group-hub/internal/infrastructure/service"

	// Interface layer
	httpserver "github.com/tlu-hub/tlu-group-hub/internal/interface/http"
	"github.com/tlu-hub/tlu-group-hub/internal/interface/http/handlers"

	"github.com/tlu-hub/tlu-group-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. CONFIGURATION
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load(viper.New())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. LOGGING
	// ─────────────────────────────────────────────────────────────────────────
	log := setupLogger(cfg)
	slog.SetDefault(log)
	log.Info("starting TLU group hub",
		"env", cfg.App.Environment,
		"version", cfg.App.Version,
		"storage", cfg.Storage.Backend,
		"redis", cfg.Redis.Enabled(),
	)

	health := handlers.NewCompositeHealthChecker(cfg.App.Version)

	var m *metrics.Metrics
	if cfg.Observability.MetricsEnabled {
		m = metrics.New()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. STORAGE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		repo     registration.Repository
		recorder command.AssignmentRecorder
	)
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		log.Info("connecting to database...")
		dbCfg := postgres.DefaultConfig(cfg.Database.URL)
		dbCfg.MaxConns = cfg.Database.MaxConns
		dbCfg.MinConns = cfg.Database.MinConns
		dbCfg.StartupTimeout = cfg.Database.StartupTimeout
		dbCfg.Logger = log
		conn, err := postgres.NewConnection(ctx, dbCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer func() {
			log.Info("closing database connection...")
			conn.Close()
		}()

		if cfg.Database.AutoMigrate {
			applied, err := postgres.NewMigrator(conn).Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations completed", "applied", applied)
		}

		repo = postgres.NewRegistrationRepository(conn)
		recorder = postgres.NewAssignmentRepository(conn)
		health.AddCheck("postgres", handlers.NewPingCheck(conn))

	default:
		store, err := csvstore.New(cfg.Storage.Dir, log)
		if err != nil {
			return fmt.Errorf("failed to open csv store: %w", err)
		}
		repo = store
		health.AddCheck("storage", handlers.NewDirCheck(cfg.Storage.Dir))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SESSIONS AND PROFILE CACHE
	// ─────────────────────────────────────────────────────────────────────────
	var (
		sessions registration.SessionStore
		profiles registration.ProfileCache
	)
	if cfg.Redis.Enabled() {
		log.Info("connecting to Redis...")
		redisCfg := redis.DefaultConfig(cfg.Redis.URL)
		redisCfg.KeyPrefix = cfg.Redis.KeyPrefix
		redisCfg.PoolSize = cfg.Redis.PoolSize
		cache, err := redis.NewCache(ctx, redisCfg)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer func() { _ = cache.Close() }()

		sessions = redis.NewSessionStore(cache)
		profiles = redis.NewProfileCache(cache)
		health.AddCheck("redis", handlers.NewPingCheck(cache))
	} else {
		log.Info("redis disabled, keeping sessions in memory")
		mem := memory.NewSessionStore()
		go sweepSessions(ctx, mem, time.Minute, log)
		sessions = mem
		profiles = memory.NewProfileCache()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. PORTAL CLIENT
	// ─────────────────────────────────────────────────────────────────────────
	portalCfg := tlu.DefaultClientConfig(cfg.Portal.BaseURL)
	portalCfg.Timeout = cfg.Portal.Timeout
	portalCfg.RetryMax = cfg.Portal.RetryMax
	portalCfg.InsecureSkipVerify = cfg.Portal.InsecureTLS
	portalCfg.RateLimiterConfig.RequestsPerSecond = cfg.Portal.RequestsPerSecond
	portalCfg.RateLimiterConfig.BurstSize = cfg.Portal.Burst
	portalCfg.BreakerCooldown = cfg.Portal.BreakerCooldown
	portalCfg.Logger = log
	if m != nil {
		portalCfg.Observer = m.ObservePortalRequest
	}
	client := tlu.NewClient(portalCfg)
	defer client.CloseIdleConnections()
	if cfg.Portal.InsecureTLS {
		log.Warn("portal TLS verification disabled")
	}
	health.AddCheck("portal", handlers.NewPortalCheck(func() string { return client.Status().CircuitBreaker }))

	portal := service.NewPortalAdapter(client)
	profileService := service.NewProfileService(portal, profiles, cfg.Portal.ProfileCacheTTL, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. APPLICATION HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	loginCfg := command.LoginHandlerConfig{SessionTTL: cfg.Portal.SessionTTL, Logger: log}
	groupCfg := command.FormGroupsHandlerConfig{
		Engine:   grouping.Config{GroupSize: cfg.Grouping.GroupSize, Seed: cfg.Grouping.Seed},
		Recorder: recorder,
		Logger:   log,
	}
	var regObserver command.RegistrationObserver
	if m != nil {
		loginCfg.Observer = m
		groupCfg.Observer = m
		regObserver = m
	}

	loginHandler := command.NewLoginHandler(portal, sessions, profiles, loginCfg)
	formHandler := query.NewGetRegistrationFormHandler(sessions, profileService, repo, log)
	submitHandler := command.NewSubmitRegistrationHandler(sessions, profileService, repo, log, regObserver)
	groupsHandler := command.NewFormGroupsHandler(repo, groupCfg)

	var admin *handlers.AdminAuth
	if cfg.Admin.Enabled() {
		admin, err = handlers.NewAdminAuth(cfg.Admin.Username, cfg.Admin.PasswordHash, log)
		if err != nil {
			return fmt.Errorf("failed to configure admin: %w", err)
		}
	} else {
		log.Warn("ADMIN_USERNAME not set, instructor pages disabled")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 7. HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	httpCfg := httpserver.DefaultConfig()
	httpCfg.Host = cfg.HTTP.Host
	httpCfg.Port = cfg.HTTP.Port
	httpCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	httpCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	httpCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	httpCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes
	httpCfg.SecureCookies = cfg.HTTP.SecureCookies
	httpCfg.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute

	deps := httpserver.Dependencies{
		Login:    loginHandler,
		Form:     formHandler,
		Submit:   submitHandler,
		Grouping: groupsHandler,
		Admin:    admin,
		Health:   health,
		Logger:   log,
	}
	if m != nil {
		deps.Metrics = m.Handler()
	}
	server := httpserver.NewServer(httpCfg, deps)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. RUN UNTIL SIGNAL
	// ─────────────────────────────────────────────────────────────────────────
	errCh := server.StartAsync()
	log.Info("application started", "address", server.Address())

	select {
	case <-ctx.Done():
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	uptime := server.Uptime()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Error("http server shutdown error", "error", err)
	}

	log.Info("application stopped gracefully", "uptime", uptime.Round(time.Second))
	return nil
}

// setupLogger writes JSON in production and text elsewhere unless LOG_FORMAT
// says otherwise.
func setupLogger(cfg *config.Config) *slog.Logger {
	format := logger.ParseFormat(cfg.Observability.LogFormat)
	if cfg.IsDevelopment() && cfg.Observability.LogFormat == "" {
		format = logger.FormatText
	}
	return logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    format,
		AddSource: cfg.IsDevelopment(),
	}).With("app", cfg.App.Name)
}

// sweepSessions drops expired in-memory sessions until ctx is done.
func sweepSessions(ctx context.Context, store *memory.SessionStore, every time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := store.Sweep(); n > 0 {
				log.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
