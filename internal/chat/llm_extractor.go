package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"consultant-match-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
)

// systemPrompt steers the model toward fast, decisive role generation. The
// structured block markers are load-bearing: extraction depends on the
// model emitting roles inside <roles>...</roles>.
const systemPrompt = `You are a helpful assistant helping assemble a development team.
Your goal is to quickly understand project requirements and generate a team FAST.

URGENCY DETECTION:
- If the user mentions being in a hurry, urgent, ASAP, quickly, fast, or any time pressure - generate roles IMMEDIATELY with zero questions
- If the user provides ANY project description, generate roles immediately - don't ask questions
- Only ask questions if the message is completely empty or just "hello" with no context

Be extremely proactive and make reasonable assumptions. Generate roles on the FIRST message if possible.

Guidelines:
- If the user mentions a project type (web app, mobile app, game, API, etc.), generate appropriate roles IMMEDIATELY
- Make reasonable assumptions about tech stack based on project type if not specified
- For web apps, typically include: Frontend Engineer, Backend Engineer (and optionally Full-stack, DevOps, Designer)
- For mobile apps, typically include: Mobile Developer (iOS/Android), Backend Engineer
- For games, typically include: Game Developer, Backend Engineer, Designer
- For APIs/backend services: Backend Engineer, DevOps Engineer
- For data/ML projects: Data Engineer, ML Engineer, Backend Engineer
- Default to common modern stacks (React, Node.js, Python, etc.) if not specified

Generate structured role queries in JSON format. The JSON should be embedded in your response like this:

<roles>
{
  "roles": [
    {
      "title": "Frontend Engineer",
      "description": "Description of what this role needs",
      "query": "Vector search query for matching candidates (e.g., 'Frontend developer with React and TypeScript experience')",
      "requiredSkills": ["React", "TypeScript"]
    }
  ]
}
</roles>

CRITICAL: Generate roles IMMEDIATELY when you detect urgency or when the user provides any project information.
Don't ask questions - be decisive and helpful. Speed is more important than perfect information.`

var rolesBlockRe = regexp.MustCompile(`(?s)<roles>\s*(\{.*?\})\s*</roles>`)

// LLMRoleExtractor implements RoleExtractor on top of a chat-completion
// model.
type LLMRoleExtractor struct {
	llmModel model.ToolCallingChatModel
	logger   *log.Logger
}

var _ RoleExtractor = (*LLMRoleExtractor)(nil)

// NewLLMRoleExtractor creates an extractor around the given chat model.
func NewLLMRoleExtractor(llmModel model.ToolCallingChatModel, logger *log.Logger) *LLMRoleExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &LLMRoleExtractor{
		llmModel: llmModel,
		logger:   logger,
	}
}

// ExtractRoles runs one extractor pass: the full history plus the system
// prompt goes to the model, the reply is scanned for a structured roles
// block. A malformed roles block degrades to an incomplete turn rather
// than an error, matching how a human reply without roles is treated.
func (e *LLMRoleExtractor) ExtractRoles(ctx context.Context, history []types.ChatMessage) (*Extraction, error) {
	messages := make([]*einoschema.Message, 0, len(history)+1)
	messages = append(messages, &einoschema.Message{
		Role:    einoschema.System,
		Content: systemPrompt,
	})
	for _, msg := range history {
		messages = append(messages, &einoschema.Message{
			Role:    einoschema.RoleType(msg.Role),
			Content: msg.Content,
		})
	}

	content, err := e.callLLM(ctx, messages)
	if err != nil {
		return nil, err
	}

	extraction := &Extraction{Reply: content}

	match := rolesBlockRe.FindStringSubmatch(content)
	if match == nil {
		return extraction, nil
	}

	var rolesPayload struct {
		Roles []types.RoleSpecification `json:"roles"`
	}
	if err := json.Unmarshal([]byte(match[1]), &rolesPayload); err != nil {
		// Continue without roles, the reply text still stands on its own.
		e.logger.Printf("[RoleExtractor] failed to parse roles block: %v", err)
		return extraction, nil
	}

	extraction.Reply = stripRolesBlock(content)
	extraction.Complete = true
	extraction.Roles = rolesPayload.Roles
	return extraction, nil
}

// callLLM calls the model with a single retry for transient transport
// errors.
func (e *LLMRoleExtractor) callLLM(ctx context.Context, messages []*einoschema.Message) (string, error) {
	const maxRetries = 1
	retryDelay := 2 * time.Second

	var response *einoschema.Message
	var err error

	for retry := 0; retry <= maxRetries; retry++ {
		if retry > 0 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("context cancelled: %w", ctx.Err())
			case <-time.After(retryDelay):
				retryDelay *= 2
				e.logger.Printf("[RoleExtractor] retrying LLM call (attempt %d)", retry+1)
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
		response, err = e.llmModel.Generate(callCtx, messages)
		cancel()

		if err == nil {
			break
		}
		if !isRetryableError(err) || retry >= maxRetries {
			return "", fmt.Errorf("LLM Generate failed: %w", err)
		}
	}

	return response.Content, nil
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "EOF") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host")
}

// stripRolesBlock removes the structured block so the user-visible reply
// reads as plain prose.
func stripRolesBlock(content string) string {
	start := strings.Index(content, "<roles>")
	end := strings.Index(content, "</roles>")
	if start == -1 || end == -1 || end < start {
		return strings.TrimSpace(content)
	}
	before := strings.TrimSpace(content[:start])
	after := strings.TrimSpace(content[end+len("</roles>"):])
	switch {
	case before == "":
		return after
	case after == "":
		return before
	default:
		return before + "\n\n" + after
	}
}
