// Package matching implements the vector match pipeline: canonical query
// building, pool-based recall against the consultant store, score
// normalization and the fixed top-K cut. The role-based and legacy project
// paths share every stage and differ only in the response arm.
package matching

import (
	"context"
	"errors"
	"math"
	"sort"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/storage"
	"consultant-match-go/internal/tracing"
	"consultant-match-go/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var matchTracer = otel.Tracer("consultant-match-go/matching")

// ConsultantSearcher is the slice of the vector store the matcher needs.
type ConsultantSearcher interface {
	SearchConsultants(ctx context.Context, queryVector []float64, limit int) ([]storage.ScoredConsultant, error)
}

// VectorCache caches query embeddings keyed by query text and model
// version. Cache failures are treated as misses, never as errors.
type VectorCache interface {
	GetQueryVector(ctx context.Context, queryText string, modelVersion string) ([]float64, error)
	SetQueryVector(ctx context.Context, queryText string, vector []float64, modelVersion string) error
}

// ResumeChecker reports whether a stored resume exists for a consultant.
type ResumeChecker interface {
	HasResume(ctx context.Context, consultantID string) (bool, error)
}

// Service runs match queries. It is stateless between requests and safe
// for concurrent use.
type Service struct {
	embedder     embedding.Embedder
	store        ConsultantSearcher
	cache        VectorCache
	resumes      ResumeChecker
	cfg          config.MatchingConfig
	modelVersion string
}

// ServiceOption configures optional collaborators.
type ServiceOption func(*Service)

// WithVectorCache attaches the query-vector cache.
func WithVectorCache(cache VectorCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithResumeChecker attaches the resume store used to enrich results with
// resume references.
func WithResumeChecker(resumes ResumeChecker) ServiceOption {
	return func(s *Service) {
		s.resumes = resumes
	}
}

// NewService builds a match service. modelVersion identifies the embedding
// model and versions the cache keys.
func NewService(embedder embedding.Embedder, store ConsultantSearcher, modelVersion string, cfg config.MatchingConfig, opts ...ServiceOption) *Service {
	s := &Service{
		embedder:     embedder,
		store:        store,
		cfg:          cfg,
		modelVersion: modelVersion,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MatchRequest selects the pipeline arm: Roles for the role-based path,
// ProjectDescription for the legacy flat path. Exactly one must be set.
type MatchRequest struct {
	Roles              []types.RoleSpecification
	ProjectDescription string
}

// MatchResponse is the tagged result variant. Exactly one field is
// populated, mirroring which arm of MatchRequest was used.
type MatchResponse struct {
	Roles []types.RoleMatchResult
	Flat  []types.MatchResult
}

// Match dispatches to the role-based or legacy pipeline. Both arms share
// query building, recall, scoring and the top-K cut.
func (s *Service) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	ctx, span := matchTracer.Start(ctx, "Matching.Match")
	defer span.End()

	if req.Roles != nil {
		span.SetAttributes(
			attribute.String("match.kind", "roles"),
			attribute.Int("match.role_count", len(req.Roles)),
		)
		results, err := s.matchRoles(ctx, req.Roles)
		if err != nil {
			tracing.RecordError(span, err, classifyError(err))
			return nil, err
		}
		span.SetStatus(codes.Ok, "")
		return &MatchResponse{Roles: results}, nil
	}

	span.SetAttributes(attribute.String("match.kind", "flat"))
	results, err := s.matchProject(ctx, req.ProjectDescription)
	if err != nil {
		tracing.RecordError(span, err, classifyError(err))
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return &MatchResponse{Flat: results}, nil
}

// matchRoles runs one match per role, preserving input order. A role with
// zero matches keeps its empty result entry; a collaborator failure fails
// the whole request.
func (s *Service) matchRoles(ctx context.Context, roles []types.RoleSpecification) ([]types.RoleMatchResult, error) {
	if len(roles) == 0 {
		return nil, ErrNoRoles
	}

	results := make([]types.RoleMatchResult, 0, len(roles))
	for _, role := range roles {
		queryText, filter, err := BuildRoleQuery(role)
		if err != nil {
			return nil, err
		}

		consultants, err := s.matchOne(ctx, queryText, filter)
		if err != nil {
			return nil, err
		}

		results = append(results, types.RoleMatchResult{
			Role:        role,
			Consultants: consultants,
		})
	}
	return results, nil
}

// matchProject is the legacy single-description path.
func (s *Service) matchProject(ctx context.Context, description string) ([]types.MatchResult, error) {
	queryText, err := BuildProjectQuery(description)
	if err != nil {
		return nil, err
	}
	return s.matchOne(ctx, queryText, nil)
}

// matchOne executes the shared pipeline for one canonical query.
func (s *Service) matchOne(ctx context.Context, queryText string, filter *SkillFilter) ([]types.MatchResult, error) {
	ctx, span := matchTracer.Start(ctx, "Matching.matchOne")
	defer span.End()

	span.SetAttributes(
		attribute.String("match.query", tracing.SafeQueryText(queryText)),
		attribute.Bool("match.has_skill_filter", filter != nil),
	)

	queryVector, err := s.queryVector(ctx, queryText)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	poolSize := s.cfg.RecallPoolSize
	if poolSize <= 0 {
		poolSize = 100
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout())
	hits, err := s.store.SearchConsultants(searchCtx, queryVector, poolSize)
	cancel()
	if err != nil {
		err = wrapCollaborator("vector search", err)
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	results := s.scoreAndCut(hits, filter)
	s.enrichResumeRefs(ctx, results)

	span.SetAttributes(
		attribute.Int("match.recall_count", len(hits)),
		attribute.Int("match.result_count", len(results)),
	)
	span.SetStatus(codes.Ok, "")
	return results, nil
}

// scoreAndCut normalizes raw similarities, applies the advisory skill
// boost, sorts by descending score with store order as the stable
// tie-break, and cuts to the configured top-K.
func (s *Service) scoreAndCut(hits []storage.ScoredConsultant, filter *SkillFilter) []types.MatchResult {
	results := make([]types.MatchResult, 0, len(hits))
	for _, hit := range hits {
		raw := float64(hit.RawScore)
		if math.IsNaN(raw) || math.IsInf(raw, 0) {
			raw = s.cfg.DefaultRawSimilarity
		}

		// The boost lives in raw-similarity space so normalization sees one
		// consistent input and the descending-score invariant holds.
		if filter != nil && s.cfg.SkillBoost > 0 {
			for _, skill := range filter.Skills {
				if filter.Matches(hit.Profile.Skills, skill) {
					raw += s.cfg.SkillBoost
				}
			}
		}

		results = append(results, types.MatchResult{
			ConsultantProfile: hit.Profile,
			MatchScore:        NormalizeScore(raw, s.cfg),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MatchScore > results[j].MatchScore
	})

	limit := s.cfg.ResultLimit
	if limit <= 0 {
		limit = 3
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// enrichResumeRefs fills in ResumeRef from the resume store for profiles
// that lack one. Best-effort: a failed lookup leaves the field empty.
func (s *Service) enrichResumeRefs(ctx context.Context, results []types.MatchResult) {
	if s.resumes == nil {
		return
	}
	for i := range results {
		if results[i].ResumeRef != "" || results[i].ID == "" {
			continue
		}
		has, err := s.resumes.HasResume(ctx, results[i].ID)
		if err != nil {
			logger.Debug().Err(err).Str("consultant_id", results[i].ID).Msg("resume presence check failed")
			continue
		}
		if has {
			results[i].ResumeRef = results[i].ID
		}
	}
}

// queryVector resolves the embedding for a canonical query, consulting the
// cache first. The embedder is the system of record; the cache only saves
// repeat calls.
func (s *Service) queryVector(ctx context.Context, queryText string) ([]float64, error) {
	if s.cache != nil {
		if vector, err := s.cache.GetQueryVector(ctx, queryText, s.modelVersion); err == nil && len(vector) > 0 {
			return vector, nil
		} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
			logger.Debug().Err(err).Msg("query-vector cache read failed, falling through to embedder")
		}
	}

	embedCtx, cancel := context.WithTimeout(ctx, s.cfg.CollaboratorTimeout())
	defer cancel()

	vectors, err := s.embedder.EmbedStrings(embedCtx, []string{queryText})
	if err != nil {
		return nil, wrapCollaborator("embedding", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, wrapCollaborator("embedding", errors.New("embedder returned no vector"))
	}

	if s.cache != nil {
		if err := s.cache.SetQueryVector(ctx, queryText, vectors[0], s.modelVersion); err != nil {
			logger.Debug().Err(err).Msg("query-vector cache write failed")
		}
	}
	return vectors[0], nil
}

func classifyError(err error) tracing.ErrorType {
	switch {
	case errors.Is(err, ErrEmptyQuery), errors.Is(err, ErrNoRoles):
		return tracing.ErrorTypeValidation
	case IsTimeout(err):
		return tracing.ErrorTypeTimeout
	case errors.Is(err, ErrCollaborator):
		return tracing.ErrorTypeInternal
	default:
		return tracing.ErrorTypeInternal
	}
}
