// internal/store/redis.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kalakriti-client/internal/domain/cart"
	"kalakriti-client/internal/domain/user"
)

// RedisStore keeps client state in Redis for deployments where several
// storefront processes (kiosks) share one session. Credentials are stored
// with a TTL matching the token expiry so Redis itself evicts dead sessions.
type RedisStore struct {
	client  *redis.Client
	prefix  string
	timeout time.Duration
}

// RedisConfig mirrors the connection settings the composition root reads
// from the environment.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStore connects and pings before returning, so a misconfigured
// address fails at startup rather than on first save.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis store: no address provided")
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "kalakriti"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis store: failed to connect: %w", err)
	}

	return &RedisStore{client: client, prefix: cfg.Prefix, timeout: 5 * time.Second}, nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func (r *RedisStore) key(section string) string {
	return fmt.Sprintf("%s:state:%s", r.prefix, section)
}

func (r *RedisStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), r.timeout)
}

func (r *RedisStore) SaveCredentials(creds *Credentials) error {
	if creds == nil || creds.Token == "" {
		return fmt.Errorf("redis store: refusing to save empty credentials")
	}
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("redis store: marshal credentials: %w", err)
	}

	ttl := time.Until(creds.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis store: credentials already expired")
	}

	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Set(ctx, r.key(keyCredentials), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis store: save credentials: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadCredentials() (*Credentials, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.Get(ctx, r.key(keyCredentials)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: load credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil || creds.Token == "" {
		return nil, ErrNotFound
	}
	return &creds, nil
}

func (r *RedisStore) ClearCredentials() error {
	ctx, cancel := r.ctx()
	defer cancel()

	// Credentials and user snapshot go in a single DEL so no reader observes
	// one without the other.
	if err := r.client.Del(ctx, r.key(keyCredentials), r.key(keyUser)).Err(); err != nil {
		return fmt.Errorf("redis store: clear credentials: %w", err)
	}
	return nil
}

func (r *RedisStore) SaveUser(u *user.User) error {
	if u == nil {
		return fmt.Errorf("redis store: nil user")
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("redis store: marshal user: %w", err)
	}

	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Set(ctx, r.key(keyUser), data, 0).Err(); err != nil {
		return fmt.Errorf("redis store: save user: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadUser() (*user.User, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.Get(ctx, r.key(keyUser)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: load user: %w", err)
	}

	var u user.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *RedisStore) SaveCart(lines []cart.Line) error {
	data, err := cart.EncodeLines(lines)
	if err != nil {
		return fmt.Errorf("redis store: marshal cart: %w", err)
	}

	ctx, cancel := r.ctx()
	defer cancel()
	if err := r.client.Set(ctx, r.key(keyCart), data, 0).Err(); err != nil {
		return fmt.Errorf("redis store: save cart: %w", err)
	}
	return nil
}

func (r *RedisStore) LoadCart() ([]cart.Line, error) {
	ctx, cancel := r.ctx()
	defer cancel()

	data, err := r.client.Get(ctx, r.key(keyCart)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: load cart: %w", err)
	}
	return cart.DecodeLines(data), nil
}

func (r *RedisStore) ClearCart() error {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Del(ctx, r.key(keyCart)).Err(); err != nil {
		return fmt.Errorf("redis store: clear cart: %w", err)
	}
	return nil
}
