// Package embedding provides the text embedding provider used for both
// consultant profiles and match queries. Both sides must always go through
// the same model, otherwise their vectors are not comparable.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/tracing"

	einoembedding "github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var embeddingTracer = otel.Tracer("consultant-match-go/embedding")

// AliyunEmbedder implements embedding.Embedder against the DashScope
// OpenAI-compatible endpoint.
type AliyunEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	httpClient *http.Client
	baseURL    string
}

var _ einoembedding.Embedder = (*AliyunEmbedder)(nil)

// NewAliyunEmbedder creates an embedder for the configured model.
func NewAliyunEmbedder(apiKey string, cfg config.EmbeddingConfig) (*AliyunEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "text-embedding-v3"
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/embeddings"
	}

	return &AliyunEmbedder{
		apiKey:     apiKey,
		model:      model,
		dimensions: cfg.Dimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}, nil
}

// GetDimensions returns the configured output dimension.
func (a *AliyunEmbedder) GetDimensions() int {
	return a.dimensions
}

// ModelVersion identifies the embedding model, used to version cache keys.
func (a *AliyunEmbedder) ModelVersion() string {
	return a.model
}

// openAIEmbeddingRequest is the OpenAI-compatible request body.
type openAIEmbeddingRequest struct {
	Input          interface{} `json:"input"` // string or []string
	Model          string      `json:"model"`
	Dimensions     int         `json:"dimensions,omitempty"`
	EncodingFormat string      `json:"encoding_format,omitempty"`
}

type openAIEmbeddingResponse struct {
	Object string `json:"object"`
	Data   []struct {
		Object    string    `json:"object"`
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
	Error *openAIError `json:"error,omitempty"`
}

// openAIError covers API-level errors returned with 200 OK.
type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Param   string `json:"param"`
	Code    string `json:"code"`
}

// EmbedStrings converts texts to vectors, implementing the
// cloudwego/eino embedding.Embedder interface.
func (a *AliyunEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...einoembedding.Option) ([][]float64, error) {
	ctx, span := embeddingTracer.Start(ctx, "AliyunEmbedder.EmbedStrings",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	options := &einoembedding.Options{}
	einoembedding.GetCommonOptions(options, opts...)

	effectiveModel := a.model
	if options.Model != nil && *options.Model != "" {
		effectiveModel = *options.Model
	}

	span.SetAttributes(
		attribute.String("embedding.model", effectiveModel),
		attribute.Int("embedding.dimensions", a.dimensions),
		attribute.Int("embedding.input_count", len(texts)),
	)

	if len(texts) == 0 {
		span.SetStatus(codes.Ok, "no texts to embed")
		return [][]float64{}, nil
	}

	var inputBody interface{}
	if len(texts) == 1 {
		inputBody = texts[0]
	} else {
		inputBody = texts
	}

	reqBody := openAIEmbeddingRequest{
		Input: inputBody,
		Model: effectiveModel,
	}
	if a.dimensions > 0 {
		reqBody.Dimensions = a.dimensions
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		err = fmt.Errorf("marshal embedding request: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL, bytes.NewBuffer(jsonData))
	if err != nil {
		err = fmt.Errorf("build embedding request: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+a.apiKey)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("call embedding API: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("read embedding response: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != http.StatusOK {
		var apiError openAIError
		detailedErr := fmt.Errorf("embedding API failed: status=%d, body=%s", resp.StatusCode, string(body))
		if json.Unmarshal(body, &apiError) == nil && apiError.Message != "" {
			detailedErr = fmt.Errorf("embedding API failed: status=%d, type=%s, message=%s, code=%s",
				resp.StatusCode, apiError.Type, apiError.Message, apiError.Code)
		}
		tracing.RecordHTTPError(span, detailedErr, resp.StatusCode)
		return nil, detailedErr
	}

	var parsedResp openAIEmbeddingResponse
	if err := json.Unmarshal(body, &parsedResp); err != nil {
		err = fmt.Errorf("decode embedding response: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	if parsedResp.Error != nil && parsedResp.Error.Message != "" {
		err = fmt.Errorf("embedding API error: type=%s, message=%s, code=%s",
			parsedResp.Error.Type, parsedResp.Error.Message, parsedResp.Error.Code)
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, err
	}

	// The API may reorder entries, Index restores request order.
	outputEmbeddings := make([][]float64, len(parsedResp.Data))
	for i, entry := range parsedResp.Data {
		idx := entry.Index
		if idx < 0 || idx >= len(outputEmbeddings) {
			idx = i
		}
		outputEmbeddings[idx] = entry.Embedding
	}

	span.SetAttributes(
		attribute.Int("embedding.output_count", len(outputEmbeddings)),
		attribute.Int("embedding.prompt_tokens", parsedResp.Usage.PromptTokens),
		attribute.Int("embedding.total_tokens", parsedResp.Usage.TotalTokens),
	)
	span.SetStatus(codes.Ok, "")
	return outputEmbeddings, nil
}
