package sessions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shothook/internal/config"
)

// Store keeps per-interaction launch context between the first launch and the
// form submission, keyed by correlation id.
type Store interface {
	// Save stores value, JSON encoded, under key for the store TTL.
	Save(ctx context.Context, key string, value any) error
	// Load decodes the value under key into out. It reports false when the key
	// is absent or expired.
	Load(ctx context.Context, key string, out any) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// Open builds the store selected by cfg.Sessions.Driver.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Sessions.Driver {
	case config.SessionsRedis:
		store, err := NewRedisStore(RedisConfig{
			Address:   cfg.Sessions.RedisAddr,
			Password:  cfg.Sessions.RedisPassword,
			DB:        cfg.Sessions.RedisDB,
			KeyPrefix: cfg.Sessions.KeyPrefix,
			TTL:       cfg.SessionTTL(),
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.SessionsMemory, "":
		return NewMemoryStore(cfg.SessionTTL()), nil
	default:
		return nil, fmt.Errorf("unknown sessions driver %q", cfg.Sessions.Driver)
	}
}

func encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}
	return data, nil
}

func decode(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode session: %w", err)
	}
	return nil
}

const defaultTTL = time.Hour
