package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig describes the Redis connection for RedisStore.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	KeyPrefix string
	TTL       time.Duration
}

// RedisStore keeps sessions in Redis with a per-key expiry, letting several
// daemons behind one event exchange share launch context.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects and pings Redis.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return newRedisStore(client, cfg), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, cfg RedisConfig) *RedisStore {
	return newRedisStore(client, cfg)
}

func newRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisStore{client: client, prefix: cfg.KeyPrefix, ttl: ttl}
}

func (r *RedisStore) key(key string) string {
	return r.prefix + key
}

func (r *RedisStore) Save(ctx context.Context, key string, value any) error {
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis save session: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, key string, out any) (bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis load session: %w", err)
	}
	if err := decode(data, out); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}
