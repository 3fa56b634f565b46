package bootstrap

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	// page fetchers register themselves in init
	_ "github.com/riclovato/furia-chatbot/internal/adapter/browser"
	_ "github.com/riclovato/furia-chatbot/internal/adapter/httpfetch"

	"github.com/riclovato/furia-chatbot/internal/adapter"
	"github.com/riclovato/furia-chatbot/internal/adapter/draft5"
	"github.com/riclovato/furia-chatbot/internal/config"
	"github.com/riclovato/furia-chatbot/internal/interfaces"
	"github.com/riclovato/furia-chatbot/internal/normalize"
	"github.com/riclovato/furia-chatbot/internal/repository"
	"github.com/riclovato/furia-chatbot/internal/service"
	"github.com/riclovato/furia-chatbot/internal/utils/clock"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// App holds the wired pipeline shared by the server and the CLI.
type App struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Clock      clock.Clock
	Store      interfaces.MatchStore
	Runs       interfaces.ExtractionLog // nil with the file backend
	Extractor  *draft5.Extractor
	Normalizer *normalize.Normalizer
	Validator  *service.Validator
	Sync       *service.SyncService
	Messages   service.Messages

	db *gorm.DB
}

// New opens the configured store and builds extractor → normalizer → validator → sync.
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	clk := clock.Real()
	app := &App{Config: cfg, Logger: logger, Clock: clk}

	// 1. store
	switch cfg.Store.Backend {
	case "gorm":
		db, err := OpenDatabase(cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if err := repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database schema ready")
		app.db = db
		app.Store = repository.NewMatchRepository(db)
		app.Runs = repository.NewExtractionRepository(db)
	default:
		if dir := filepath.Dir(cfg.Store.Path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create data dir: %w", err)
			}
		}
		store, err := repository.NewFileStore(cfg.Store.Path, logger)
		if err != nil {
			return nil, err
		}
		app.Store = store
	}

	// 2. extraction pipeline
	fetcher, err := adapter.NewFetcher(&cfg.Scraper, logger)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()
	app.Extractor = draft5.NewExtractor(&cfg.Scraper, fetcher, logger, clk)
	app.Normalizer = normalize.NewFromConfig(cfg, clk)
	app.Validator = service.NewValidator(cfg.Scraper.HomeTeam, loc, clk)
	app.Sync = service.NewSyncService(app.Extractor, app.Normalizer, app.Validator, app.Store, app.Runs, logger, clk)
	app.Messages = service.Messages{HomeTeam: cfg.Scraper.HomeTeam, Location: loc, Lead: cfg.Scheduler.Lead}
	return app, nil
}

// Close releases the database connection, if any.
func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// OpenDatabase connects with the configured driver. A missing postgres
// database is created on the first attempt.
func OpenDatabase(cfg config.DatabaseConfig, logger *logrus.Logger) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		db, err = gorm.Open(sqlite.Open(cfg.DSN), cfg.GetGORMConfig())
	case "postgres", "":
		db, err = gorm.Open(postgres.Open(cfg.DSN), cfg.GetGORMConfig())
		if err != nil && (strings.Contains(err.Error(), "does not exist") || strings.Contains(err.Error(), "3D000")) {
			logger.Info("database does not exist, creating it")
			if e := ensureDatabaseExists(cfg.DSN); e != nil {
				return nil, fmt.Errorf("create database: %w", e)
			}
			db, err = gorm.Open(postgres.Open(cfg.DSN), cfg.GetGORMConfig())
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	logger.WithField("driver", cfg.Driver).Info("database connected")
	return db, nil
}

// ensureDatabaseExists connects to the postgres maintenance database and
// creates the target one (idempotent). dsn must be URL-shaped.
func ensureDatabaseExists(dsn string) error {
	u, err := url.Parse(dsn)
	if err != nil {
		return err
	}
	dbname := strings.TrimSpace(strings.TrimPrefix(u.Path, "/"))
	if dbname == "" || dbname == "postgres" {
		return nil
	}
	u.Path = "/postgres"

	db, err := sql.Open("pgx", u.String())
	if err != nil {
		return err
	}
	defer db.Close()

	err = db.QueryRow("SELECT 1 FROM pg_database WHERE datname = $1", dbname).Scan(new(int))
	if errors.Is(err, sql.ErrNoRows) {
		_, err = db.Exec(`CREATE DATABASE "` + strings.ReplaceAll(dbname, `"`, `""`) + `"`)
	}
	return err
}
