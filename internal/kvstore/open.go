package kvstore

import (
	"context"
	"log/slog"

	"git.home.luguber.info/inful/bgtimer/internal/config"
	foundationerrors "git.home.luguber.info/inful/bgtimer/internal/foundation/errors"
	"git.home.luguber.info/inful/bgtimer/internal/logfields"
)

// Open returns the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Backend {
	case config.StorageJSON, "":
		store, err = NewJSONStore(cfg.Path, logger)
	case config.StorageSQLite:
		store, err = NewSQLiteStore(cfg.Path)
	case config.StorageNATS:
		store, err = NewNATSStore(ctx, NATSOptions{
			URL:     cfg.NATS.URL,
			Bucket:  cfg.NATS.Bucket,
			Timeout: cfg.NATS.Timeout,
			Logger:  logger,
		})
	case config.StorageMemory:
		store = NewMemoryStore()
	default:
		return nil, foundationerrors.ValidationError("unsupported storage backend").
			WithContext("backend", string(cfg.Backend)).
			Build()
	}
	if err != nil && cfg.Backend == config.StorageNATS {
		return nil, foundationerrors.NetworkError("failed to reach NATS state store").
			WithCause(err).
			WithContext("url", cfg.NATS.URL).
			WithContext("bucket", cfg.NATS.Bucket).
			Build()
	}
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryStorage, "failed to open state store").
			WithContext("backend", string(cfg.Backend)).
			WithContext("path", cfg.Path).
			Build()
	}

	logger.Debug("state store opened", logfields.Backend(string(cfg.Backend)), logfields.Path(cfg.Path))
	return store, nil
}
