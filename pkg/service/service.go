// Package service wires configuration into a running engine: storage
// driver, sketch store, MinHash implementations.
package service

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/scanon/AssemblyHomologyService/pkg/config"
	"github.com/scanon/AssemblyHomologyService/pkg/core"
	"github.com/scanon/AssemblyHomologyService/pkg/minhash"
	"github.com/scanon/AssemblyHomologyService/pkg/minhash/mash"
	"github.com/scanon/AssemblyHomologyService/pkg/sketchstore"
	"github.com/scanon/AssemblyHomologyService/pkg/sketchstore/miniostore"
	"github.com/scanon/AssemblyHomologyService/pkg/storage"
	"github.com/scanon/AssemblyHomologyService/pkg/storage/inmemory"
	"github.com/scanon/AssemblyHomologyService/pkg/storage/postgres"
	"github.com/scanon/AssemblyHomologyService/pkg/storage/sqlite"
)

// Service bundles the engine with the resources it owns.
type Service struct {
	Engine  *core.Engine
	Storage storage.Driver
}

// New builds a Service from configuration.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Service, error) {
	store, err := NewStorageDriver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	sketches, err := NewSketchStore(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	engine, err := core.NewEngine(store, sketches, Factories(cfg), cfg.TempDir, logger)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Service{Engine: engine, Storage: store}, nil
}

// Close releases the service's resources.
func (s *Service) Close() error {
	return s.Storage.Close()
}

// NewStorageDriver creates the configured storage backend.
func NewStorageDriver(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Driver, error) {
	switch cfg.Storage.Provider {
	case "sqlite":
		driver, err := sqlite.NewDriver(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to create SQLite store: %w", err)
		}
		logger.Info("using SQLite storage", zap.String("path", cfg.Storage.SQLitePath))
		return driver, nil
	case "postgres":
		driver, err := postgres.NewDriver(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create PostgreSQL store: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return driver, nil
	case "inmemory", "":
		logger.Info("using in-memory storage")
		return inmemory.NewDriver(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %s", cfg.Storage.Provider)
	}
}

// NewSketchStore creates the configured sketch store.
func NewSketchStore(cfg *config.Config) (sketchstore.Store, error) {
	switch cfg.SketchStore.Provider {
	case "minio":
		client, err := minio.New(cfg.SketchStore.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.SketchStore.AccessKey, cfg.SketchStore.SecretKey, ""),
			Secure: cfg.SketchStore.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create object storage client: %w", err)
		}
		return miniostore.NewStore(client, cfg.SketchStore.CacheDir)
	case "local", "":
		return sketchstore.NewLocalStore(), nil
	default:
		return nil, fmt.Errorf("unknown sketch store provider: %s", cfg.SketchStore.Provider)
	}
}

// Factories returns the MinHash implementation factories this deployment
// carries.
func Factories(cfg *config.Config) []minhash.ImplementationFactory {
	return []minhash.ImplementationFactory{
		mash.NewFactory(cfg.MinHash.MashPath),
	}
}
