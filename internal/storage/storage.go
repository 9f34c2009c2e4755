// Package storage aggregates the persistence backends: the Qdrant vector
// store for consultant profiles, the Redis query-vector cache and the MinIO
// resume object store.
package storage

import (
	"context"
	"fmt"
	"time"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/logger"
)

// Storage bundles the storage backends. Qdrant is mandatory: without the
// vector store there is no corpus to match against. Redis and MinIO are
// optional accelerators; a failed init degrades the service instead of
// stopping it.
type Storage struct {
	// Vector store for consultant profiles.
	Qdrant *Qdrant

	// Query-vector cache, nil when Redis is unconfigured or unreachable.
	Redis *Redis

	// Resume object store, nil when MinIO is unconfigured or unreachable.
	MinIO *MinIO
}

// NewStorage initializes all configured backends.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	storage := &Storage{}
	var err error

	storage.Qdrant, err = NewQdrant(&cfg.Qdrant, WithHTTPTimeout(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("initialize Qdrant: %w", err)
	}
	logger.Info().
		Str("endpoint", cfg.Qdrant.Endpoint).
		Str("collection", cfg.Qdrant.Collection).
		Msg("Qdrant client initialized")

	if cfg.Redis.Address != "" {
		storage.Redis, err = NewRedis(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("Redis init failed, query-vector cache disabled")
			storage.Redis = nil
		} else {
			logger.Info().Str("address", cfg.Redis.Address).Msg("Redis client initialized")
		}
	} else {
		logger.Info().Msg("Redis not configured, query-vector cache disabled")
	}

	if cfg.MinIO.Endpoint != "" {
		storage.MinIO, err = NewMinIO(&cfg.MinIO)
		if err != nil {
			logger.Warn().Err(err).Msg("MinIO init failed, resume store disabled")
			storage.MinIO = nil
		} else {
			logger.Info().Str("endpoint", cfg.MinIO.Endpoint).Msg("MinIO client initialized")
		}
	} else {
		logger.Info().Msg("MinIO not configured, resume store disabled")
	}

	return storage, nil
}

// Close releases backend connections. Qdrant and MinIO use plain HTTP
// clients and have nothing to close.
func (s *Storage) Close() {
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("close Redis connection")
		}
	}
}
