// Package llm wraps the Aliyun Qwen chat-completion API behind the eino
// chat model interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"consultant-match-go/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// OpenAI-compatible API endpoint for DashScope.
	openAICompatibleQwenAPIURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"
	defaultQwenModelName       = "qwen-plus"
)

var llmTracer = otel.Tracer("consultant-match-go/llm")

// AliyunQwenChatModel implements model.ToolCallingChatModel against the
// Qwen chat-completion API. Role extraction only needs Generate; Stream is
// not implemented.
type AliyunQwenChatModel struct {
	apiKey     string
	modelName  string
	apiURL     string
	httpClient *http.Client
}

var _ model.ToolCallingChatModel = (*AliyunQwenChatModel)(nil)

// NewAliyunQwenChatModel creates a Qwen chat model client.
func NewAliyunQwenChatModel(apiKey string, modelName string, apiURL string) (*AliyunQwenChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}

	mn := modelName
	if strings.TrimSpace(mn) == "" {
		mn = defaultQwenModelName
	}

	url := apiURL
	if strings.TrimSpace(url) == "" {
		url = openAICompatibleQwenAPIURL
	}

	return &AliyunQwenChatModel{
		apiKey:     apiKey,
		modelName:  mn,
		apiURL:     url,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

type openAIChatCompletionRequest struct {
	Model    string            `json:"model"`
	Messages []*schema.Message `json:"messages"`
}

type openAIMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type openAIChatChoice struct {
	Index        int           `json:"index"`
	Message      openAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type openAICompletionResponse struct {
	Id      string             `json:"id"`
	Object  string             `json:"object"`
	Created int64              `json:"created"`
	Model   string             `json:"model"`
	Choices []openAIChatChoice `json:"choices"`
}

// Generate implements model.BaseChatModel.
func (aq *AliyunQwenChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	ctx, span := llmTracer.Start(ctx, "AliyunQwenChatModel.Generate",
		trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	span.SetAttributes(
		attribute.String("llm.model", aq.modelName),
		attribute.Int("llm.message_count", len(messages)),
	)

	reqPayload := openAIChatCompletionRequest{
		Model:    aq.modelName,
		Messages: messages,
	}

	jsonData, err := json.Marshal(reqPayload)
	if err != nil {
		err = fmt.Errorf("marshal chat request: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, aq.apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		err = fmt.Errorf("build chat request: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+aq.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := aq.httpClient.Do(httpReq)
	if err != nil {
		err = fmt.Errorf("call chat API: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return nil, err
	}
	defer httpResp.Body.Close()

	bodyBytes, err := io.ReadAll(httpResp.Body)
	if err != nil {
		err = fmt.Errorf("read chat response: %w", err)
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.status_code", httpResp.StatusCode))

	if httpResp.StatusCode != http.StatusOK {
		err = fmt.Errorf("chat API failed: status=%s, body=%s", httpResp.Status, string(bodyBytes))
		tracing.RecordHTTPError(span, err, httpResp.StatusCode)
		return nil, err
	}

	var openAIResp openAICompletionResponse
	if err := json.Unmarshal(bodyBytes, &openAIResp); err != nil {
		err = fmt.Errorf("decode chat response: %w, body: %s", err, string(bodyBytes))
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	if len(openAIResp.Choices) == 0 {
		err = fmt.Errorf("chat API returned no choices: %s", string(bodyBytes))
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, err
	}

	apiMessage := openAIResp.Choices[0].Message
	responseContent := ""
	if apiMessage.Content != nil {
		responseContent = *apiMessage.Content
	}

	resultMessage := &schema.Message{
		Role:    schema.RoleType(apiMessage.Role),
		Content: responseContent,
	}
	if resultMessage.Role == "" {
		resultMessage.Role = schema.Assistant
	}

	span.SetAttributes(attribute.Int("llm.response_length", len(responseContent)))
	span.SetStatus(codes.Ok, "")
	return resultMessage, nil
}

// Stream implements model.BaseChatModel. The extraction flow is
// request/response only, so streaming is not supported.
func (aq *AliyunQwenChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("Stream is not implemented for AliyunQwenChatModel")
}

// WithTools implements model.ToolCallingChatModel. No tools are used here;
// the configured model is returned unchanged.
func (aq *AliyunQwenChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return aq, nil
}
