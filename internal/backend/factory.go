package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"assetview/internal/inventory/memory"
	"assetview/internal/inventory/remote"
	"assetview/internal/seed"
	"assetview/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case RemoteBackend:
		return f.createRemoteBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Backend:  repo,
		Importer: repo,
		Cleanup:  repo.Close,
	}, nil
}

func (f *DefaultFactory) createRemoteBackend(config Config) (*BackendResult, error) {
	cli, err := remote.New(remote.Config{
		BaseURL:   config.RemoteBaseURL,
		Timeout:   config.RemoteTimeout,
		RateLimit: config.RemoteRateLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote client: %w", err)
	}

	f.logger.Info("Initialized remote backend",
		"base_url", config.RemoteBaseURL,
		"rate_limit", config.RemoteRateLimit)

	return &BackendResult{Backend: cli}, nil
}

// createMemoryBackend preloads SeedFile when it exists. A missing file is
// not fatal: the store starts empty and can be seeded later.
func (f *DefaultFactory) createMemoryBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store := memory.New()

	if config.SeedFile != "" {
		res, err := seed.Run(ctx, store, config.SeedFile)
		switch {
		case errors.Is(err, seed.ErrSeedFileNotFound):
			f.logger.Warn("Seed file not found, starting with an empty store", "file", config.SeedFile)
		case err != nil:
			return nil, fmt.Errorf("failed to seed memory backend: %w", err)
		default:
			f.logger.Info("Seeded memory backend",
				"file", config.SeedFile,
				"inserted", res.Inserted,
				"errors", len(res.Errors))
		}
	}

	f.logger.Info("Initialized memory backend", "assets", store.Len())

	return &BackendResult{
		Backend:  store,
		Importer: store,
	}, nil
}
