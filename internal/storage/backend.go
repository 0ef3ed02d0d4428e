package storage

import (
	"fmt"

	"purissima/internal/config"
	"purissima/internal/production"
)

// OpenBackend opens the StateStore named by STATE_BACKEND. The returned close
// function is never nil. meta is non-nil only for the SQLite backend.
func OpenBackend(cfg config.Config) (store production.StateStore, meta *DB, closeFn func() error, err error) {
	switch cfg.StateBackend {
	case "", "memory":
		return NewMemoryStore(), nil, func() error { return nil }, nil
	case "sqlite":
		db, err := Open(cfg.DBPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return db, db, db.Close, nil
	case "redis":
		rs, err := NewRedisStore(RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.RedisSessionTTL(),
		})
		if err != nil {
			return nil, nil, nil, err
		}
		return rs, nil, rs.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported state backend: %s", cfg.StateBackend)
	}
}
