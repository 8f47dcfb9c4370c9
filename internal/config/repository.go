package config

import (
	"context"
	"fmt"
	"os"

	"microtask/internal/repository"
	"microtask/internal/repository/jsonfile"
	"microtask/internal/repository/memory"
	"microtask/internal/repository/postgres"
	"microtask/internal/repository/sqlite"
)

// CreateRepository creates the configured store backend
func CreateRepository(ctx context.Context, config *Config) (repository.Store, error) {
	perm := os.FileMode(config.Store.DirPermissions)

	switch config.Store.Backend {
	case BackendMemory:
		return memory.New(), nil

	case BackendJSON:
		store, err := jsonfile.NewWithFiles(config.Store.Dir, config.Store.AccountsFile, config.Store.TasksFile, perm)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize json store: %w", err)
		}
		return store, nil

	case BackendSQLite:
		if err := os.MkdirAll(config.Store.Dir, perm); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		repo, err := sqlite.New(config.GetSQLitePath())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		return repo, nil

	case BackendPostgres:
		store, err := postgres.New(ctx, config.Store.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return store, nil
	}

	return nil, &ConfigError{Field: "store.backend", Message: "unknown store backend " + config.Store.Backend}
}

// CreateTestRepository creates an in-memory repository for testing
func CreateTestRepository() repository.Store {
	return memory.New()
}
