// Package main is the entry point of the gamification service.
//
// The service keeps one XP state per user, awards XP for completed tasks,
// serves level progress over REST, publishes real-time events to per-user
// Redis channels, and maintains a Redis leaderboard rebuilt periodically
// from the PostgreSQL source of truth.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taskforge/gamification/config"
	"github.com/taskforge/gamification/internal/application/command"
	"github.com/taskforge/gamification/internal/application/query"
	"github.com/taskforge/gamification/internal/domain/xp"
	"github.com/taskforge/gamification/internal/infrastructure/messaging"
	"github.com/taskforge/gamification/internal/infrastructure/persistence/postgres"
	"github.com/taskforge/gamification/internal/infrastructure/persistence/redis"
	"github.com/taskforge/gamification/internal/infrastructure/scheduler"
	"github.com/taskforge/gamification/internal/infrastructure/scheduler/jobs"
	httpiface "github.com/taskforge/gamification/internal/interface/http"
	"github.com/taskforge/gamification/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Default().Fatal("failed to load config", logger.Err(err))
	}

	logLevel := logger.LevelInfo
	if cfg.App.Debug {
		logLevel = logger.LevelDebug
	}
	log := logger.New(logger.Options{
		Output: os.Stdout,
		Level:  logLevel,
	}).With(
		logger.String("service", cfg.App.Name),
		logger.String("version", cfg.App.Version),
	)

	if err := run(cfg, log); err != nil {
		log.Fatal("service terminated", logger.Err(err))
	}
}

func run(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ─────────────────────────────────────────────────────────────────────────
	// PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Database.RunMigrations {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	states := postgres.NewUserStateRepository(conn)
	logs := postgres.NewXPLogRepository(conn)
	tasks := postgres.NewTaskRepository(conn)

	// ─────────────────────────────────────────────────────────────────────────
	// Redis (optional)
	// ─────────────────────────────────────────────────────────────────────────
	var (
		redisClient *goredis.Client
		notifier    xp.Notifier
		board       xp.Leaderboard
		cache       xp.ProgressCache
	)

	if cfg.Redis.Disabled {
		log.Warn("redis disabled, running without cache, leaderboard, and live events")
		notifier = messaging.NewMemoryNotifier()
	} else {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			return err
		}
		defer redisClient.Close()

		notifier = messaging.NewRedisNotifier(redisClient, log)
		board = redis.NewLeaderboard(redisClient)
		cache = redis.NewProgressCache(redisClient, cfg.Redis.ProgressCacheTTL)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Application layer
	// ─────────────────────────────────────────────────────────────────────────
	awardHandler := command.NewAwardXPHandler(states, notifier, board, cache, log)
	retroHandler := command.NewApplyRetroactiveXPHandler(states, tasks, board, cache, log)
	progressHandler := query.NewGetProgressHandler(states, cache, log)
	leaderboardHandler := query.NewGetLeaderboardHandler(board)
	xpLogHandler := query.NewGetXPLogHandler(logs)
	historicalHandler := query.NewCalculateHistoricalXPHandler(tasks)

	// ─────────────────────────────────────────────────────────────────────────
	// Task completion ingest
	// ─────────────────────────────────────────────────────────────────────────
	var consumer *messaging.TaskCompletedConsumer
	if redisClient != nil {
		consumer = messaging.NewTaskCompletedConsumer(redisClient, awardHandler, log)
		if err := consumer.Start(ctx); err != nil {
			return err
		}
		defer consumer.Stop()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled && board != nil {
		sched = scheduler.New(scheduler.Config{Logger: log})

		rebuild := jobs.NewRebuildLeaderboardJob(states, board, log, jobs.RebuildLeaderboardConfig{
			PageSize: cfg.Scheduler.LeaderboardRebuildPageSize,
			Timeout:  2 * time.Minute,
		})
		if err := sched.Register(rebuild, scheduler.Every(cfg.Scheduler.LeaderboardRebuildInterval)); err != nil {
			return err
		}

		if err := sched.Start(ctx); err != nil {
			return err
		}
		defer func() { _ = sched.Stop() }()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	deps := httpiface.Dependencies{
		GetProgressHandler:        progressHandler,
		GetLeaderboardHandler:     leaderboardHandler,
		GetXPLogHandler:           xpLogHandler,
		CalculateHistoricalXP:     historicalHandler,
		ApplyRetroactiveXPHandler: retroHandler,
		Postgres:                  conn,
		Logger:                    log,
	}
	if redisClient != nil {
		deps.Redis = redisPinger{client: redisClient}
	}

	server := httpiface.NewServer(httpiface.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:     1 << 20,
		EnableCORS:         cfg.HTTP.EnableCORS,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimitPerMinute,
	}, deps)

	errCh := server.StartAsync()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

// redisPinger adapts the go-redis client to the health Pinger interface.
type redisPinger struct {
	client *goredis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}
