// Package consultant implements ingest and lifecycle management of
// consultant profiles: validate, embed, upsert, list, delete.
package consultant

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var consultantTracer = otel.Tracer("consultant-match-go/consultant")

// ErrInvalidProfile rejects profiles that cannot produce a canonical text.
var ErrInvalidProfile = errors.New("profile must have a name or at least one skill")

// Store is the slice of the vector store the consultant service needs.
type Store interface {
	UpsertConsultant(ctx context.Context, profile types.ConsultantProfile, vector []float64) (string, error)
	ListConsultants(ctx context.Context, limit int) ([]types.ConsultantProfile, error)
	DeleteConsultants(ctx context.Context, ids []string) error
}

// ResumeStore is the optional object store holding resume files.
type ResumeStore interface {
	HasResume(ctx context.Context, consultantID string) (bool, error)
	RemoveResume(ctx context.Context, consultantID string) error
}

// Service manages consultant records.
type Service struct {
	store    Store
	embedder embedding.Embedder
	resumes  ResumeStore
	cfg      config.MatchingConfig
}

// NewService builds the consultant service. resumes may be nil when no
// object store is configured.
func NewService(store Store, embedder embedding.Embedder, resumes ResumeStore, cfg config.MatchingConfig) *Service {
	return &Service{
		store:    store,
		embedder: embedder,
		resumes:  resumes,
		cfg:      cfg,
	}
}

// Ingest validates a profile, embeds its canonical text and upserts it
// into the vector store. The embedding is always regenerated from the
// canonical text, never accepted from the caller.
func (s *Service) Ingest(ctx context.Context, profile types.ConsultantProfile) (string, error) {
	ctx, span := consultantTracer.Start(ctx, "Consultant.Ingest")
	defer span.End()

	canonical := profile.CanonicalText()
	if strings.TrimSpace(canonical) == "" {
		span.SetStatus(codes.Error, ErrInvalidProfile.Error())
		return "", ErrInvalidProfile
	}

	if profile.Availability == "" {
		profile.Availability = types.AvailabilityUnknown
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout())
	vectors, err := s.embedder.EmbedStrings(embedCtx, []string{canonical})
	cancel()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("embed profile: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		err := errors.New("embedder returned no vector for profile")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	id, err := s.store.UpsertConsultant(ctx, profile, vectors[0])
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("store profile: %w", err)
	}

	span.SetAttributes(attribute.String("consultant.id", id))
	span.SetStatus(codes.Ok, "")
	logger.Info().Str("consultant_id", id).Msg("consultant ingested")
	return id, nil
}

// List returns stored consultants, enriched with resume references where
// a resume object exists.
func (s *Service) List(ctx context.Context, limit int) ([]types.ConsultantProfile, error) {
	profiles, err := s.store.ListConsultants(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list consultants: %w", err)
	}

	if s.resumes != nil {
		for i := range profiles {
			if profiles[i].ResumeRef != "" {
				continue
			}
			has, err := s.resumes.HasResume(ctx, profiles[i].ID)
			if err != nil {
				logger.Debug().Err(err).Str("consultant_id", profiles[i].ID).Msg("resume presence check failed")
				continue
			}
			if has {
				profiles[i].ResumeRef = profiles[i].ID
			}
		}
	}
	return profiles, nil
}

// Delete removes one consultant and its stored resume, if any.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("consultant ID is required")
	}

	if err := s.store.DeleteConsultants(ctx, []string{id}); err != nil {
		return fmt.Errorf("delete consultant %s: %w", id, err)
	}

	if s.resumes != nil {
		if err := s.resumes.RemoveResume(ctx, id); err != nil {
			// The profile is gone; a dangling resume object is only noise.
			logger.Warn().Err(err).Str("consultant_id", id).Msg("remove resume object failed")
		}
	}
	return nil
}

// BatchResult reports a batch deletion: how many succeeded and the per-id
// failures. Partial success is a valid outcome.
type BatchResult struct {
	DeletedCount int      `json:"deleted_count"`
	Errors       []string `json:"errors,omitempty"`
}

// DeleteBatch removes consultants one by one, collecting per-id errors
// instead of stopping at the first failure.
func (s *Service) DeleteBatch(ctx context.Context, ids []string) (*BatchResult, error) {
	if len(ids) == 0 {
		return nil, errors.New("at least one consultant ID is required")
	}

	result := &BatchResult{}
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		result.DeletedCount++
	}
	return result, nil
}
