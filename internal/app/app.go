// Package app assembles storage, services, workers and the HTTP server from
// the configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/comitanigiacomo/kanso-progress-engine/internal/adapters/cache"
	adapterHTTP "github.com/comitanigiacomo/kanso-progress-engine/internal/adapters/handler/http"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/adapters/repository"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/config"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/domain"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/services"
	"github.com/comitanigiacomo/kanso-progress-engine/internal/core/workers"
)

const shutdownTimeout = 10 * time.Second

type storage struct {
	db           *sqlx.DB
	users        domain.UserRepository
	habits       domain.HabitRepository
	entries      domain.HabitEntryRepository
	achievements domain.AchievementRepository
}

// App holds every long-lived component of the service.
type App struct {
	cfg   *config.Config
	clock domain.Clock

	db    *sqlx.DB
	redis *redis.Client

	Worker       *workers.ProgressWorker
	Scheduler    *workers.Scheduler
	Achievements *services.AchievementService
	Handler      http.Handler
}

// New wires the application. Nothing runs until Run is called.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	clock := domain.NewClock(cfg.Location())

	store, err := openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, clock: clock, db: store.db}

	habits, entries := store.habits, store.entries
	if addr := cfg.RedisAddr(); addr != "" {
		rdb, err := cache.NewRedisClient(addr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, running without cache and rate limiting")
		} else {
			a.redis = rdb
			habits = repository.NewCachedHabitRepository(habits, rdb, cfg.CacheTTL)
			entries = repository.NewCachedEntryRepository(entries, rdb, cfg.CacheTTL)
			log.WithField("addr", addr).Info("redis cache enabled")
		}
	}

	a.Achievements = services.NewAchievementService(habits, entries, store.achievements, clock)
	a.Worker = workers.NewProgressWorker(habits, entries, a.Achievements, clock, cfg.WorkerQueueSize)

	a.Scheduler, err = workers.NewScheduler(cfg.RecalcSchedule, cfg.Location(), a.Worker)
	if err != nil {
		a.Close()
		return nil, err
	}

	tokens := services.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, store.users)

	deps := adapterHTTP.RouterDependencies{
		AuthHandler:        adapterHTTP.NewAuthHandler(services.NewAuthService(store.users, tokens)),
		HabitHandler:       adapterHTTP.NewHabitHandler(services.NewHabitService(habits)),
		EntryHandler:       adapterHTTP.NewEntryHandler(services.NewEntryService(entries, habits, a.Worker), clock),
		StatsHandler:       adapterHTTP.NewStatsHandler(services.NewStatsService(habits, entries, clock), clock),
		AchievementHandler: adapterHTTP.NewAchievementHandler(a.Achievements),
		TokenValidator:     tokens,
		Redis:              a.redis,
		AllowOrigins:       cfg.CORSOrigins,
		RateLimit:          cfg.RateLimitRequests,
		RateWindow:         cfg.RateLimitWindow,
		StartTime:          time.Now(),
	}
	if a.db != nil {
		deps.DB = a.db
	}
	a.Handler = adapterHTTP.NewRouter(deps)

	return a, nil
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	if cfg.Storage == config.StorageMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return &storage{
			users:        repository.NewInMemoryUserRepository(),
			habits:       repository.NewInMemoryHabitRepository(),
			entries:      repository.NewInMemoryEntryRepository(),
			achievements: repository.NewInMemoryAchievementRepository(),
		}, nil
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.DBAutoMigrate {
		if _, err := repository.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &storage{
		db:           db,
		users:        repository.NewPostgresUserRepository(db.DB),
		habits:       repository.NewPostgresHabitRepository(db),
		entries:      repository.NewPostgresEntryRepository(db),
		achievements: repository.NewPostgresAchievementRepository(db),
	}, nil
}

// OpenDB connects to Postgres with the configured driver and pool size.
func OpenDB(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	log.WithFields(log.Fields{"driver": cfg.DBDriver, "host": cfg.DBHost}).Info("connecting to database")

	db, err := sqlx.ConnectContext(ctx, cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxConns)
	db.SetMaxIdleConns(cfg.DBMaxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// Run serves HTTP and runs the workers until ctx is cancelled, then shuts
// everything down in reverse order.
func (a *App) Run(ctx context.Context) error {
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	a.Worker.Start(workerCtx)
	if err := a.Scheduler.Start(workerCtx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.Handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("port", a.cfg.Port).Info("kanso progress engine listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("stop signal received, shutting down")
	case err := <-serveErr:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("forced http shutdown")
	}
	a.Scheduler.Stop(shutdownCtx)

	stopWorker()
	select {
	case <-a.Worker.Done():
	case <-shutdownCtx.Done():
		log.Warn("progress worker did not stop in time")
	}

	log.Info("server stopped")
	return runErr
}

// Recalculate recomputes one habit, or every active habit when habitID is
// empty, and returns how many habits were processed.
func (a *App) Recalculate(ctx context.Context, habitID string) (int, error) {
	if habitID == "" {
		return a.Worker.RecalculateAll(ctx)
	}
	if err := a.Worker.Process(ctx, habitID); err != nil {
		return 0, err
	}
	return 1, nil
}

// Close releases the database and Redis connections.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			log.WithError(err).Warn("close redis")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.WithError(err).Warn("close database")
		}
	}
}
