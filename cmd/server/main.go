package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/taskboard/internal/auth"
	"github.com/ayush/taskboard/internal/config"
	"github.com/ayush/taskboard/internal/middleware"
	"github.com/ayush/taskboard/internal/server"
	"github.com/ayush/taskboard/internal/store"
	"github.com/ayush/taskboard/internal/tasks"
	"github.com/ayush/taskboard/internal/views"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := mustMakeLogger(cfg.LogLevel)

	if err := run(cfg, log); err != nil {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users     auth.UserStore
		taskStore tasks.Store
		memory    *store.MemoryStore
	)
	if cfg.UserStore == config.StoreMemory || cfg.TaskStore == config.StoreMemory {
		memory = store.NewMemoryStore()
		log.Warn("using in-memory storage; data is lost on restart")
	}

	// ── PostgreSQL ────────────────────────────────────────────
	if cfg.UserStore == config.StorePostgres || cfg.TaskStore == config.StorePostgres {
		pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		defer pgPool.Close()

		pgStore := store.NewPostgresStore(pgPool)
		if err := pgStore.Migrate(ctx); err != nil {
			return fmt.Errorf("postgres migrate: %w", err)
		}
		if cfg.UserStore == config.StorePostgres {
			users = pgStore
		}
		if cfg.TaskStore == config.StorePostgres {
			taskStore = pgStore
		}
	}

	// ── MongoDB ──────────────────────────────────────────────
	if cfg.TaskStore == config.StoreMongo {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return fmt.Errorf("mongo connect: %w", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Error("mongo disconnect", "error", err)
			}
		}()

		mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))
		if err := mongoStore.Migrate(ctx); err != nil {
			return fmt.Errorf("mongo migrate: %w", err)
		}
		taskStore = mongoStore
	}

	if users == nil {
		users = memory
	}
	if taskStore == nil {
		taskStore = memory
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		return err
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb, cfg.SessionTTL, cfg.SessionSliding)

	// ── Handlers ─────────────────────────────────────────────
	renderer, err := views.New(log)
	if err != nil {
		return fmt.Errorf("templates: %w", err)
	}
	identity := auth.NewManager(log, sessions, users, cfg.CookieSecure)
	authHandler, err := auth.NewHandler(log, users, auth.NewHasher(cfg.PasswordIterations), identity, renderer)
	if err != nil {
		return fmt.Errorf("auth handler: %w", err)
	}

	policy, err := tasks.ParsePolicy(cfg.TaskAccess)
	if err != nil {
		return err
	}
	taskHandler := tasks.NewHandler(tasks.NewService(taskStore, policy), renderer)

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst)
	if err := loginLimiter.TrustProxies(cfg.TrustedProxies); err != nil {
		return fmt.Errorf("TRUSTED_PROXIES: %w", err)
	}

	handler := server.NewRouter(server.Deps{
		Views:          renderer,
		Identity:       identity,
		Auth:           authHandler,
		Tasks:          taskHandler,
		LoginLimiter:   loginLimiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("taskboard listening", "port", cfg.Port,
			"user_store", cfg.UserStore, "task_store", cfg.TaskStore, "task_access", policy.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func mustMakeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
