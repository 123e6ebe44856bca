package backend

import (
	"context"
	"fmt"

	"cablebill/internal/log"
	"cablebill/internal/store"
	"cablebill/internal/store/jsonfile"
	"cablebill/internal/store/memory"
	redisstore "cablebill/internal/store/redis"
	"cablebill/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend. With a backup file
// configured the primary store is wrapped in a store.Mirror.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	primary, err := f.createPrimary(ctx, config)
	if err != nil {
		return nil, err
	}

	if config.BackupFile == "" {
		return &BackendResult{Store: primary, Cleanup: primary.Close}, nil
	}

	backup, err := jsonfile.New(config.BackupFile)
	if err != nil {
		primary.Close()
		return nil, fmt.Errorf("failed to initialize backup store: %w", err)
	}
	mirror := store.NewMirror(primary, backup, f.logger.Logger)
	f.logger.Info("Mirroring store to backup file", "backup_file", config.BackupFile)

	return &BackendResult{Store: mirror, Cleanup: mirror.Close}, nil
}

func (f *DefaultFactory) createPrimary(ctx context.Context, config Config) (store.Store, error) {
	switch config.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return memory.New(), nil

	case JSONBackend:
		st, err := jsonfile.New(config.DataFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize JSON file store: %w", err)
		}
		f.logger.Info("Initialized JSON file backend", "data_file", config.DataFile)
		return st, nil

	case SQLiteBackend:
		st, err := sqlite.New(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return st, nil

	case RedisBackend:
		st, err := redisstore.New(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB, config.RedisPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		f.logger.Info("Initialized Redis backend", "addr", config.RedisAddr, "db", config.RedisDB)
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
