package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-chirper/internal/config"
	"backend-chirper/internal/db"
	"backend-chirper/internal/logger"
	"backend-chirper/internal/server"
	"backend-chirper/internal/store"
	"backend-chirper/internal/store/postgres"
	"backend-chirper/internal/store/sqlite"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig   func() config.Config
	newLogger    func(config.Config) (*zap.Logger, error)
	openStore    func(context.Context, config.Config) (store.Store, func(), error)
	connectRedis func(config.Config) *redis.Client
	notify       func(chan<- os.Signal, ...os.Signal)
	run          func(context.Context, config.Config, store.Store, *redis.Client, *zap.Logger, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:   config.Load,
		newLogger:    logger.New,
		openStore:    openStore,
		connectRedis: db.ConnectRedis,
		notify:       signal.Notify,
		run:          Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()

	zl, err := deps.newLogger(cfg)
	if err != nil {
		log.Printf("logger setup failed: %v", err)
		return
	}
	defer func() { _ = zl.Sync() }()

	if err := cfg.Validate(); err != nil {
		zl.Error("invalid configuration", zap.String("env", cfg.AppEnv), zap.Error(err))
		return
	}

	st, closeStore, err := deps.openStore(context.Background(), cfg)
	if err != nil {
		zl.Error("store unavailable", zap.String("env", cfg.AppEnv), zap.Error(err))
		return
	}
	defer closeStore()

	rdb := deps.connectRedis(cfg)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, st, rdb, zl, signals, nil); err != nil {
		zl.Error("server exited with error", zap.Error(err))
	}
}

// openStore picks the adapter once: Postgres in production, SQLite otherwise.
func openStore(ctx context.Context, cfg config.Config) (store.Store, func(), error) {
	var (
		st      store.Store
		closeFn func()
	)
	if cfg.IsProduction() {
		pool, err := db.ConnectPostgres(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		st, closeFn = postgres.New(pool), pool.Close
	} else {
		handle, err := db.OpenSQLite(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		st, closeFn = sqlite.New(handle), func() { _ = handle.Close() }
	}

	if err := st.Migrate(ctx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return st, closeFn, nil
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, st store.Store, rdb *redis.Client, zl *zap.Logger, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, st, rdb, zl)
	defer srv.Close()

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()
	zl.Info("listening", zap.String("addr", cfg.ServerPort), zap.String("env", cfg.AppEnv))

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return srv.App.ShutdownWithContext(shutdownCtx)
}
