package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/constants"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is not found in Redis.
// It wraps the underlying redis.Nil error for abstraction.
var ErrNotFound = redis.Nil

// Redis caches query embeddings so repeated match requests for the same
// role text skip the embedding call. A cache miss is never an error for
// callers: the matching path treats the cache as best-effort.
type Redis struct {
	Client *redis.Client
	config *config.RedisConfig
}

// NewRedis creates a Redis client and verifies the connection.
func NewRedis(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	opt := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,

		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,

		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}

	client := redis.NewClient(opt)

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return &Redis{
		Client: client,
		config: cfg,
	}, nil
}

// Close closes the Redis client connection.
func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

// Ping checks the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// QueryVectorKey derives the cache key for a canonical query text under a
// given embedding model. The key is a content hash, so identical role
// queries share one cache entry regardless of which request produced them.
func QueryVectorKey(queryText, modelVersion string) string {
	sum := sha256.Sum256([]byte(modelVersion + "\x00" + queryText))
	return constants.QueryVectorCachePrefix + hex.EncodeToString(sum[:])
}

func (r *Redis) queryVectorTTL() time.Duration {
	minutes := r.config.QueryVectorTTLMinutes
	if minutes <= 0 {
		minutes = 24 * 60
	}
	return time.Duration(minutes) * time.Minute
}

// SetQueryVector stores a query embedding and the model version that
// produced it under one HASH key.
func (r *Redis) SetQueryVector(ctx context.Context, queryText string, vector []float64, modelVersion string) error {
	if r.Client == nil {
		return fmt.Errorf("redis client is not initialized")
	}

	cacheKey := QueryVectorKey(queryText, modelVersion)

	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal query vector: %w", err)
	}

	pipe := r.Client.Pipeline()
	pipe.HSet(ctx, cacheKey, "vector", vectorJSON)
	pipe.HSet(ctx, cacheKey, "model_version", modelVersion)
	pipe.Expire(ctx, cacheKey, r.queryVectorTTL())

	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set query vector cache: %w", err)
	}
	return nil
}

// GetQueryVector fetches a cached query embedding. The stored model version
// must match modelVersion, otherwise the entry counts as a miss: embeddings
// from different models are not comparable.
func (r *Redis) GetQueryVector(ctx context.Context, queryText string, modelVersion string) ([]float64, error) {
	if r.Client == nil {
		return nil, fmt.Errorf("redis client is not initialized")
	}

	cacheKey := QueryVectorKey(queryText, modelVersion)

	vals, err := r.Client.HMGet(ctx, cacheKey, "vector", "model_version").Result()
	if err != nil {
		return nil, err
	}
	if len(vals) < 2 || vals[0] == nil {
		return nil, ErrNotFound
	}

	vectorJSON, ok := vals[0].(string)
	if !ok || vectorJSON == "" {
		return nil, fmt.Errorf("query vector cache entry malformed")
	}

	cachedVersion, _ := vals[1].(string)
	if cachedVersion != modelVersion {
		return nil, ErrNotFound
	}

	var vector []float64
	if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
		return nil, fmt.Errorf("unmarshal query vector: %w", err)
	}
	return vector, nil
}
