package consultant

import (
	"context"
	"errors"
	"testing"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/types"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	upserted  []types.ConsultantProfile
	vectors   [][]float64
	profiles  []types.ConsultantProfile
	deleted   [][]string
	deleteErr map[string]error
}

func (s *stubStore) UpsertConsultant(ctx context.Context, profile types.ConsultantProfile, vector []float64) (string, error) {
	s.upserted = append(s.upserted, profile)
	s.vectors = append(s.vectors, vector)
	if profile.ID != "" {
		return profile.ID, nil
	}
	return "assigned-id", nil
}

func (s *stubStore) ListConsultants(ctx context.Context, limit int) ([]types.ConsultantProfile, error) {
	return s.profiles, nil
}

func (s *stubStore) DeleteConsultants(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if err := s.deleteErr[id]; err != nil {
			return err
		}
	}
	s.deleted = append(s.deleted, ids)
	return nil
}

type stubEmbedder struct {
	vector []float64
	err    error
	texts  []string
}

func (s *stubEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	s.texts = append(s.texts, texts...)
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = s.vector
	}
	return out, nil
}

type stubResumes struct {
	existing map[string]bool
	removed  []string
	rmErr    error
}

func (s *stubResumes) HasResume(ctx context.Context, consultantID string) (bool, error) {
	return s.existing[consultantID], nil
}

func (s *stubResumes) RemoveResume(ctx context.Context, consultantID string) error {
	if s.rmErr != nil {
		return s.rmErr
	}
	s.removed = append(s.removed, consultantID)
	return nil
}

func newTestService(store *stubStore, embedder *stubEmbedder, resumes *stubResumes) *Service {
	var rs ResumeStore
	if resumes != nil {
		rs = resumes
	}
	return NewService(store, embedder, rs, config.MatchingConfig{})
}

func TestIngestEmbedsCanonicalText(t *testing.T) {
	store := &stubStore{}
	embedder := &stubEmbedder{vector: []float64{0.1, 0.2}}
	svc := newTestService(store, embedder, nil)

	profile := types.ConsultantProfile{
		Name:   "Ada Lovelace",
		Skills: []string{"Go", "Qdrant"},
	}

	id, err := svc.Ingest(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, "assigned-id", id)

	require.Len(t, embedder.texts, 1)
	assert.Equal(t, "Ada Lovelace\nGo, Qdrant", embedder.texts[0])

	require.Len(t, store.upserted, 1)
	assert.Equal(t, types.AvailabilityUnknown, store.upserted[0].Availability, "missing availability defaults to unknown")
	assert.Equal(t, []float64{0.1, 0.2}, store.vectors[0])
}

func TestIngestRejectsEmptyProfile(t *testing.T) {
	store := &stubStore{}
	embedder := &stubEmbedder{vector: []float64{0.1}}
	svc := newTestService(store, embedder, nil)

	_, err := svc.Ingest(context.Background(), types.ConsultantProfile{})
	assert.ErrorIs(t, err, ErrInvalidProfile)
	assert.Empty(t, embedder.texts, "invalid profiles must not reach the embedder")
}

func TestIngestSurfacesEmbedderFailure(t *testing.T) {
	store := &stubStore{}
	embedder := &stubEmbedder{err: errors.New("embedding unavailable")}
	svc := newTestService(store, embedder, nil)

	_, err := svc.Ingest(context.Background(), types.ConsultantProfile{Name: "Ada"})
	require.Error(t, err)
	assert.Empty(t, store.upserted)
}

func TestListEnrichesResumeRefs(t *testing.T) {
	store := &stubStore{profiles: []types.ConsultantProfile{
		{ID: "1", Name: "Ada"},
		{ID: "2", Name: "Ben"},
	}}
	resumes := &stubResumes{existing: map[string]bool{"1": true}}
	svc := newTestService(store, &stubEmbedder{}, resumes)

	profiles, err := svc.List(context.Background(), 100)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "1", profiles[0].ResumeRef)
	assert.Empty(t, profiles[1].ResumeRef)
}

func TestDeleteRemovesProfileAndResume(t *testing.T) {
	store := &stubStore{}
	resumes := &stubResumes{}
	svc := newTestService(store, &stubEmbedder{}, resumes)

	require.NoError(t, svc.Delete(context.Background(), "id-1"))
	require.Len(t, store.deleted, 1)
	assert.Equal(t, []string{"id-1"}, store.deleted[0])
	assert.Equal(t, []string{"id-1"}, resumes.removed)
}

func TestDeleteToleratesResumeRemovalFailure(t *testing.T) {
	store := &stubStore{}
	resumes := &stubResumes{rmErr: errors.New("minio down")}
	svc := newTestService(store, &stubEmbedder{}, resumes)

	assert.NoError(t, svc.Delete(context.Background(), "id-1"), "a dangling resume object must not fail the delete")
}

func TestDeleteRequiresID(t *testing.T) {
	svc := newTestService(&stubStore{}, &stubEmbedder{}, nil)
	assert.Error(t, svc.Delete(context.Background(), "  "))
}

func TestDeleteBatchCollectsPerIDErrors(t *testing.T) {
	store := &stubStore{deleteErr: map[string]error{"bad": errors.New("not found")}}
	svc := newTestService(store, &stubEmbedder{}, nil)

	result, err := svc.DeleteBatch(context.Background(), []string{"a", "bad", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, result.DeletedCount)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "bad")
}

func TestDeleteBatchRequiresIDs(t *testing.T) {
	svc := newTestService(&stubStore{}, &stubEmbedder{}, nil)
	_, err := svc.DeleteBatch(context.Background(), nil)
	assert.Error(t, err)
}
