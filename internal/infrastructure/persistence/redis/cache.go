// Package redis implements Redis caching for the certification hub. The
// read-heavy lookups (public certificate verification, certificate by id)
// sit behind TTL caches; everything fails open to the database.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config holds Redis connection settings.
type Config struct {
	Host     string // server hostname
	Port     int    // server port
	Password string // empty when the server runs without auth
	DB       int    // database number, 0-15

	PoolSize     int // maximum socket connections
	MinIdleConns int // idle connections kept warm
	MaxRetries   int // per-command retries inside the client

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns settings suitable for a local Redis.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         6379,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Addr returns the "host:port" address of the server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrCacheMiss marks a lookup whose key is absent. Callers fall through
	// to the database on it.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheConnection marks a failed connection attempt.
	ErrCacheConnection = errors.New("cache: connection failed")

	// ErrCacheSerialization marks a JSON encode or decode failure.
	ErrCacheSerialization = errors.New("cache: serialization failed")

	// ErrCacheKeyEmpty rejects operations on an empty key.
	ErrCacheKeyEmpty = errors.New("cache: key cannot be empty")
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS AND TTLs
// ══════════════════════════════════════════════════════════════════════════════

const (
	prefixVerification = "verification:"
	prefixCertificate  = "certificate:"
)

const (
	// TTLVerification bounds verification-code entries. Certificates are
	// immutable after issuance, so a long TTL is safe; the cap bounds
	// memory, not staleness.
	TTLVerification = 1 * time.Hour

	// TTLCertificate bounds certificate-by-id entries.
	TTLCertificate = 1 * time.Hour
)

// VerificationKey builds the cache key for a verification-code lookup.
func VerificationKey(code string) string {
	return prefixVerification + code
}

// CertificateKey builds the cache key for a certificate id.
func CertificateKey(certificateID string) string {
	return prefixCertificate + certificateID
}

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Cache wraps a Redis client with JSON values and per-entry TTLs. Safe for
// concurrent use.
type Cache struct {
	client *redis.Client
	config Config
}

// NewCache connects to Redis and pings it before returning, so a
// misconfigured deployment fails at boot rather than on first lookup.
func NewCache(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCacheConnection, err)
	}

	return &Cache{client: client, config: cfg}, nil
}

// Client exposes the underlying Redis client. The event bus wraps it for
// cross-instance Pub/Sub.
func (c *Cache) Client() *redis.Client {
	return c.client
}

// Close releases the client's connections.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping reports whether Redis is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Set stores value under key for ttl, JSON-encoded.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

// Get decodes the entry under key into dest, or ErrCacheMiss when absent.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	if key == "" {
		return ErrCacheKeyEmpty
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}

	return nil
}

// Delete drops the given keys. Deleting absent keys is not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return c.client.Del(ctx, keys...).Err()
}
