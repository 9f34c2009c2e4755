package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/constants"
	"consultant-match-go/internal/tracing"
	"consultant-match-go/internal/types"

	"github.com/gofrs/uuid/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

var qdrantTracer = otel.Tracer("consultant-match-go/storage/qdrant")

// ScoredConsultant is one raw search hit: the stored profile plus the
// similarity score reported by the vector store. Scores are raw cosine
// similarities, not normalized match scores.
type ScoredConsultant struct {
	Profile  types.ConsultantProfile
	RawScore float32
}

// VectorStore is the consultant persistence interface backed by Qdrant.
type VectorStore interface {
	// UpsertConsultant stores a profile with its embedding and returns the
	// store-assigned ID.
	UpsertConsultant(ctx context.Context, profile types.ConsultantProfile, vector []float64) (string, error)

	// SearchConsultants recalls the limit nearest profiles for queryVector,
	// ordered by descending similarity.
	SearchConsultants(ctx context.Context, queryVector []float64, limit int) ([]ScoredConsultant, error)

	// ListConsultants scrolls through the collection, at most limit profiles.
	ListConsultants(ctx context.Context, limit int) ([]types.ConsultantProfile, error)

	// CountConsultants returns the number of stored profiles.
	CountConsultants(ctx context.Context) (int64, error)

	// DeleteConsultants removes the given profiles by ID.
	DeleteConsultants(ctx context.Context, ids []string) error
}

var _ VectorStore = (*Qdrant)(nil)

// Qdrant talks to a Qdrant server over its HTTP API.
type Qdrant struct {
	endpoint       string
	collectionName string
	vectorSize     int
	distanceMetric string
	httpClient     *http.Client
}

// QdrantOption configures the Qdrant client.
type QdrantOption func(*Qdrant)

// WithDistanceMetric overrides the collection distance metric.
func WithDistanceMetric(metric string) QdrantOption {
	return func(q *Qdrant) {
		q.distanceMetric = metric
	}
}

// WithHTTPTimeout overrides the HTTP client timeout.
func WithHTTPTimeout(timeout time.Duration) QdrantOption {
	return func(q *Qdrant) {
		q.httpClient = &http.Client{Timeout: timeout}
	}
}

// NewQdrant builds a client and ensures the consultant collection exists.
func NewQdrant(cfg *config.QdrantConfig, opts ...QdrantOption) (*Qdrant, error) {
	if cfg == nil {
		return nil, fmt.Errorf("qdrant config is nil")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "http://localhost:6333"
	}

	collectionName := cfg.Collection
	if collectionName == "" {
		collectionName = constants.ConsultantCollection
	}

	vectorSize := cfg.Dimension
	if vectorSize <= 0 {
		vectorSize = constants.DefaultVectorDimension
	}

	q := &Qdrant{
		endpoint:       endpoint,
		collectionName: collectionName,
		vectorSize:     vectorSize,
		distanceMetric: "Cosine",
		httpClient:     &http.Client{Timeout: 30 * time.Second},
	}

	for _, opt := range opts {
		opt(q)
	}

	if err := q.ensureCollectionExists(context.Background()); err != nil {
		return nil, fmt.Errorf("ensure collection %q exists: %w", collectionName, err)
	}

	return q, nil
}

func (q *Qdrant) ensureCollectionExists(ctx context.Context) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.EnsureCollectionExists",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "check_collection"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("db.vector_size", q.vectorSize),
	)

	url := fmt.Sprintf("%s/collections/%s", q.endpoint, q.collectionName)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("build check-collection request: %w", err)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return fmt.Errorf("check collection: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		span.AddEvent("collection_not_found", trace.WithAttributes(
			attribute.String("action", "create_collection"),
		))
		return q.createCollection(ctx)
	} else if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("check collection: status=%d, body=%s", resp.StatusCode, string(body))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return err
	}

	var collectionInfo struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size     int    `json:"size"`
						Distance string `json:"distance"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return fmt.Errorf("read collection info: %w", err)
	}
	if err := json.Unmarshal(body, &collectionInfo); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("decode collection info: %w", err)
	}

	existingSize := collectionInfo.Result.Config.Params.Vectors.Size
	existingDistance := collectionInfo.Result.Config.Params.Vectors.Distance

	span.SetAttributes(
		attribute.Int("collection.existing_vector_size", existingSize),
		attribute.String("collection.existing_distance", existingDistance),
	)

	if existingSize != q.vectorSize || existingDistance != q.distanceMetric {
		span.AddEvent("collection_config_mismatch", trace.WithAttributes(
			attribute.Int("expected_vector_size", q.vectorSize),
			attribute.String("expected_distance", q.distanceMetric),
		))
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (q *Qdrant) createCollection(ctx context.Context) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.CreateCollection",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "create_collection"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("db.vector_size", q.vectorSize),
		attribute.String("db.vector.distance", q.distanceMetric),
	)

	createReqBody := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     q.vectorSize,
			"distance": q.distanceMetric,
		},
		"optimizers_config": map[string]interface{}{
			"default_segment_number": 2,
		},
	}

	err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", q.collectionName), createReqBody, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return fmt.Errorf("create collection: %w", err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// UpsertConsultant stores the profile with its embedding. A missing profile
// ID means a new record: the store assigns a fresh UUID.
func (q *Qdrant) UpsertConsultant(ctx context.Context, profile types.ConsultantProfile, vector []float64) (string, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.UpsertConsultant",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "upsert_point"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("vector.size", len(vector)),
	)

	if len(vector) != q.vectorSize {
		err := fmt.Errorf("vector dimension (%d) does not match collection dimension (%d)", len(vector), q.vectorSize)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return "", err
	}

	pointID := profile.ID
	if pointID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
			return "", fmt.Errorf("generate point ID: %w", err)
		}
		pointID = id.String()
	}
	span.SetAttributes(attribute.String("consultant.id", pointID))

	point := map[string]interface{}{
		"id":      pointID,
		"vector":  vector,
		"payload": profileToPayload(profile),
	}

	reqBody := map[string]interface{}{
		"points": []interface{}{point},
	}

	var response struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", q.collectionName), reqBody, &response)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return "", err
	}

	span.SetAttributes(
		attribute.String("qdrant.response_status", response.Status),
		attribute.Float64("qdrant.response_time", response.Time),
	)
	span.SetStatus(codes.Ok, "")
	return pointID, nil
}

// SearchConsultants recalls the limit nearest profiles for queryVector.
func (q *Qdrant) SearchConsultants(ctx context.Context, queryVector []float64, limit int) ([]ScoredConsultant, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.SearchConsultants",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "search_vectors"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("search.limit", limit),
		attribute.Int("query_vector.size", len(queryVector)),
	)

	if len(queryVector) != q.vectorSize {
		err := fmt.Errorf("query vector dimension (%d) does not match collection dimension (%d)", len(queryVector), q.vectorSize)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	if limit <= 0 {
		limit = constants.DefaultRecallPoolSize
	}

	searchReq := map[string]interface{}{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}

	var result struct {
		Result []struct {
			ID      string                 `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", q.collectionName), searchReq, &result)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	hits := make([]ScoredConsultant, 0, len(result.Result))
	for _, point := range result.Result {
		hits = append(hits, ScoredConsultant{
			Profile:  payloadToProfile(point.ID, point.Payload),
			RawScore: point.Score,
		})
	}

	span.SetAttributes(
		attribute.Int("search.results.count", len(hits)),
		attribute.String("qdrant.response_status", result.Status),
		attribute.Float64("qdrant.response_time", result.Time),
	)
	span.SetStatus(codes.Ok, "")
	return hits, nil
}

// ListConsultants scrolls the collection up to limit profiles. Scroll order
// is store-internal and not meaningful.
func (q *Qdrant) ListConsultants(ctx context.Context, limit int) ([]types.ConsultantProfile, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.ListConsultants",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "qdrant"),
			attribute.String("db.operation", "scroll"),
			attribute.String("db.collection", q.collectionName),
			attribute.Int("scroll.limit", limit),
		),
	)
	defer span.End()

	if limit <= 0 {
		limit = constants.DefaultOverviewScanLimit
	}

	scrollReqBody := map[string]interface{}{
		"with_payload": true,
		"with_vector":  false,
		"limit":        limit,
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				ID      string                 `json:"id"`
				Payload map[string]interface{} `json:"payload"`
			} `json:"points"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", q.collectionName), scrollReqBody, &scrollResp)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return nil, err
	}

	profiles := make([]types.ConsultantProfile, 0, len(scrollResp.Result.Points))
	for _, point := range scrollResp.Result.Points {
		profiles = append(profiles, payloadToProfile(point.ID, point.Payload))
	}

	span.SetAttributes(attribute.Int("retrieved_points_count", len(profiles)))
	span.SetStatus(codes.Ok, "")
	return profiles, nil
}

// CountConsultants returns the exact number of stored profiles.
func (q *Qdrant) CountConsultants(ctx context.Context) (int64, error) {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.CountConsultants",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "count_points"),
		attribute.String("db.collection", q.collectionName),
	)

	reqBody := map[string]interface{}{
		"exact": true,
	}

	var result struct {
		Result struct {
			Count int64 `json:"count"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/count", q.collectionName), reqBody, &result)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return 0, err
	}

	span.SetAttributes(
		attribute.Int64("count", result.Result.Count),
		attribute.String("qdrant.response_status", result.Status),
	)
	span.SetStatus(codes.Ok, "")
	return result.Result.Count, nil
}

// DeleteConsultants removes the given profiles by point ID.
func (q *Qdrant) DeleteConsultants(ctx context.Context, ids []string) error {
	ctx, span := qdrantTracer.Start(ctx, "Qdrant.DeleteConsultants",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", "delete_points"),
		attribute.String("db.collection", q.collectionName),
		attribute.Int("points.count", len(ids)),
	)

	if len(ids) == 0 {
		span.SetStatus(codes.Ok, "no points to delete")
		return nil
	}

	reqBody := map[string]interface{}{
		"points": ids,
	}

	var result struct {
		Result struct {
			Status string `json:"status"`
		} `json:"result"`
		Status string  `json:"status"`
		Time   float64 `json:"time"`
	}

	err := q.doRequest(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/delete?wait=true", q.collectionName), reqBody, &result)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
		return err
	}

	span.SetAttributes(
		attribute.String("qdrant.response_status", result.Status),
		attribute.Float64("qdrant.response_time", result.Time),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

func (q *Qdrant) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	ctx, span := qdrantTracer.Start(ctx, fmt.Sprintf("%s %s", method, path),
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("net.peer.name", q.endpoint),
		attribute.String("db.system", "qdrant"),
		attribute.String("db.operation", path),
	)

	var req *http.Request
	var err error

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}

		req, err = http.NewRequestWithContext(ctx, method, q.endpoint+path, bytes.NewBuffer(jsonBody))
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		span.SetAttributes(attribute.Int("http.request.body.size", len(jsonBody)))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, q.endpoint+path, nil)
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := q.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return err
	}

	span.SetAttributes(attribute.Int("http.response.body.size", len(respBody)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("qdrant API error: status=%d, body=%s", resp.StatusCode, string(respBody))
		tracing.RecordHTTPError(span, err, resp.StatusCode)
		return err
	}

	if result != nil && len(respBody) > 0 {
		if err = json.Unmarshal(respBody, result); err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeVectorDB)
			return err
		}
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func profileToPayload(p types.ConsultantProfile) map[string]interface{} {
	payload := map[string]interface{}{
		"name":         p.Name,
		"skills":       p.Skills,
		"availability": string(p.Availability),
	}
	if p.Email != "" {
		payload["email"] = p.Email
	}
	if p.Phone != "" {
		payload["phone"] = p.Phone
	}
	if p.Experience != "" {
		payload["experience"] = p.Experience
	}
	if p.Education != "" {
		payload["education"] = p.Education
	}
	if p.ResumeRef != "" {
		payload["resume_ref"] = p.ResumeRef
	}
	return payload
}

func payloadToProfile(id string, payload map[string]interface{}) types.ConsultantProfile {
	profile := types.ConsultantProfile{
		ID:           id,
		Name:         payloadString(payload, "name"),
		Email:        payloadString(payload, "email"),
		Phone:        payloadString(payload, "phone"),
		Experience:   payloadString(payload, "experience"),
		Education:    payloadString(payload, "education"),
		ResumeRef:    payloadString(payload, "resume_ref"),
		Availability: types.ParseAvailability(payloadString(payload, "availability")),
	}

	if raw, ok := payload["skills"].([]interface{}); ok {
		skills := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok && s != "" {
				skills = append(skills, s)
			}
		}
		profile.Skills = skills
	}

	return profile
}

func payloadString(payload map[string]interface{}, key string) string {
	if v, ok := payload[key].(string); ok {
		return v
	}
	return ""
}
