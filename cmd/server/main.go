package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/iliyamo/ngo-portal/internal/config"   // Internal config loader
	"github.com/iliyamo/ngo-portal/internal/database" // Connection and schema migrations
	"github.com/iliyamo/ngo-portal/internal/model"
	"github.com/iliyamo/ngo-portal/internal/queue"
	"github.com/iliyamo/ngo-portal/internal/repository"
	"github.com/iliyamo/ngo-portal/internal/router" // Internal router setup
	"github.com/iliyamo/ngo-portal/internal/service"
	"github.com/iliyamo/ngo-portal/internal/storage"
	"github.com/iliyamo/ngo-portal/internal/utils"
)

const usage = "usage: server [serve | migrate up|down | seed]"

func main() {
	cfg := config.Load() // Load environment config

	log := newLogger(cfg)
	defer func() { _ = log.Sync() }()
	zap.ReplaceGlobals(log)

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve(cfg, log)
	case "migrate":
		dir := ""
		if len(os.Args) > 2 {
			dir = os.Args[2]
		}
		err = migrate(cfg, database.Direction(dir))
	case "seed":
		err = seed(cfg, log)
	default:
		err = errors.New(usage)
	}
	if err != nil {
		log.Fatal("server: "+cmd+" failed", zap.Error(err)) // Log and exit
	}
}

func newLogger(cfg config.Config) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if cfg.IsProduction() {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return zap.NewNop()
	}
	return log.With(zap.String("env", cfg.Env))
}

func openDB(cfg config.Config) (*sql.DB, error) {
	if cfg.DBDriver == "sqlite3" {
		return database.OpenSQLite(cfg.DBPath)
	}
	return database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
}

func migrate(cfg config.Config, dir database.Direction) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return database.Migrate(db, cfg.DBDriver, dir)
}

// seed creates the configured admin if none exists and loads the sample
// events under that admin.
func seed(cfg config.Config, log *zap.Logger) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DBDriver, database.Up); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	users := repository.NewUserRepo(db)
	admin, err := service.SeedAdmin(ctx, users, cfg.SeedAdmin, cfg.BcryptCost)
	switch {
	case errors.Is(err, service.ErrAdminExists):
		log.Info("seed: admin already present, events not loaded")
		return nil
	case err != nil:
		return err
	}
	n, err := service.SeedEvents(ctx, repository.NewEventRepo(db, model.CompletedEvents), admin.ID)
	if err != nil {
		return err
	}
	log.Info("seed: done", zap.String("admin", admin.Username), zap.Int("events", n))
	return nil
}

func serve(cfg config.Config, log *zap.Logger) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(db, cfg.DBDriver, database.Up); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	store, err := storage.NewOS(cfg.StaticDir)
	if err != nil {
		return err
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; cache and rate limit disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pub service.Publisher = service.NopPublisher{}
	if cfg.Queue.Enabled {
		pub = service.NewAMQPPublisher(cfg.Queue.URL, cfg.Queue.Name, log)
		consumer := &queue.Consumer{
			URL:    cfg.Queue.URL,
			Queue:  cfg.Queue.Name,
			LogDir: cfg.Queue.LogDir,
			Fs:     afero.NewOsFs(),
			Log:    log,
		}
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("activity-consumer: stopped", zap.Error(err))
			}
		}()
	}

	e := router.New(router.Deps{
		Cfg:       cfg,
		DB:        db,
		Store:     store,
		Redis:     rdb,
		Publisher: pub,
		Issuer:    utils.NewIssuer(cfg.JWTSecret, cfg.AccessTTL),
		Log:       log,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.Shutdown(shutdownCtx)
	}()

	log.Info("listening", zap.String("addr", addr)) // Print startup info
	if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
