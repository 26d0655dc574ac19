// Package storage opens the user store selected by configuration.
package storage

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/user-directory/config"
	"github.com/oksasatya/user-directory/internal/domain/repository"
	"github.com/oksasatya/user-directory/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/user-directory/internal/infrastructure/postgres"
	sqliteinfra "github.com/oksasatya/user-directory/internal/infrastructure/sqlite"
)

// Store bundles a repository with its transaction manager.
type Store struct {
	Users  repository.UserRepository
	Tx     repository.TxManager
	Ping   func(ctx context.Context) error
	Close  func()
	Driver string
}

func Open(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Store, error) {
	switch cfg.StorageDriver {
	case "postgres":
		if err := pginfra.RunMigrations(cfg.PostgresDSN(), logger); err != nil {
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, pginfra.PoolConfig{
			DSN:         cfg.PostgresDSN(),
			MaxConns:    cfg.DBMaxConns,
			MinConns:    cfg.DBMinConns,
			MaxConnLife: cfg.DBMaxConnLife,
		})
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		repo := pginfra.NewUserRepository(pool)
		return &Store{Users: repo, Tx: pginfra.NewTxManager(pool), Ping: repo.Ping, Close: pool.Close, Driver: cfg.StorageDriver}, nil

	case "sqlite":
		db, err := sqliteinfra.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		repo := sqliteinfra.NewUserRepository(db)
		return &Store{Users: repo, Tx: sqliteinfra.NewTxManager(db), Ping: repo.Ping, Close: func() { _ = db.Close() }, Driver: cfg.StorageDriver}, nil

	case "memory":
		repo := memory.NewUserRepository()
		logger.Warn("using in-memory user store; data is lost on restart")
		return &Store{Users: repo, Tx: memory.NewTxManager(repo), Ping: repo.Ping, Close: func() {}, Driver: cfg.StorageDriver}, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
}
