package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/bryanwahyu/medscan/internal/config"
	"github.com/bryanwahyu/medscan/internal/domain/analyst"
	"github.com/bryanwahyu/medscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
	"github.com/bryanwahyu/medscan/internal/infra/ai/openai"
	"github.com/bryanwahyu/medscan/internal/infra/db/mysql"
	"github.com/bryanwahyu/medscan/internal/infra/db/postgres"
	"github.com/bryanwahyu/medscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/medscan/internal/infra/storage"
)

// database bundles the connection with the repositories built on it.
type database struct {
	*sql.DB
	scans    domain.Repository
	analyses analyst.Repository
	failures scanerrors.Repository
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		return &database{
			DB:       db,
			scans:    sqlite.NewScanRepository(db),
			analyses: sqlite.NewAnalystRepository(db),
			failures: sqlite.NewScanErrorRepository(db),
		}, nil
	case "mysql":
		db, err := mysql.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("mysql connect: %w", err)
		}
		return &database{
			DB:       db,
			scans:    mysql.NewScanRepository(db),
			analyses: mysql.NewAnalystRepository(db),
			failures: mysql.NewScanErrorRepository(db),
		}, nil
	case "postgres":
		db, err := postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		return &database{
			DB:       db,
			scans:    postgres.NewScanRepository(db),
			analyses: postgres.NewAnalystRepository(db),
			failures: postgres.NewScanErrorRepository(db),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidDriver, cfg.Database.Driver)
	}
}

// migrate applies the schema for the configured driver. sqlite.Open already
// does this, so it only matters for the server databases.
func migrate(ctx context.Context, driver string, db *sql.DB) error {
	switch driver {
	case "mysql":
		return mysql.EnsureSchema(ctx, db)
	case "postgres":
		return postgres.EnsureSchema(ctx, db)
	case "sqlite":
		return sqlite.EnsureSchema(ctx, db)
	default:
		return fmt.Errorf("%w: %q", config.ErrInvalidDriver, driver)
	}
}

type imageStore interface {
	domain.ImageStore
	Ping(ctx context.Context) error
}

func openImageStore(ctx context.Context, cfg *config.Config) (imageStore, error) {
	switch cfg.Storage.Driver {
	case "minio":
		store, err := storage.New(ctx, storage.Options{
			Endpoint:      cfg.Minio.Endpoint,
			Region:        cfg.Minio.Region,
			Bucket:        cfg.Minio.BucketName,
			AccessKey:     cfg.Minio.AccessKey,
			SecretKey:     cfg.Minio.SecretKey,
			UseSSL:        cfg.Minio.UseSSL,
			PublicBaseURL: cfg.Minio.PublicBaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio init: %w", err)
		}
		return store, nil
	case "memory":
		slog.Warn("using in-memory image storage; uploads are lost on restart")
		return storage.NewMemoryStore(cfg.Minio.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrInvalidStorage, cfg.Storage.Driver)
	}
}

func newAIClient(cfg *config.Config) *openai.Client {
	return openai.NewClient(openai.Options{
		BaseURL:     cfg.AI.BaseURL,
		APIKey:      cfg.AI.APIKey,
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
	})
}
