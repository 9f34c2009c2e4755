package chat

import (
	"context"
	"errors"
	"time"

	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/types"
)

// ErrNoUserTurn is returned when the history contains no user message.
// There is nothing to extract requirements from.
var ErrNoUserTurn = errors.New("conversation history must contain at least one user message")

const (
	// apologyReply is the recoverable degradation for extractor failures.
	// The conversation stays open instead of surfacing a 5xx to the user.
	apologyReply = "I'm sorry, I ran into a problem processing that. Could you try rephrasing your request?"

	// repromptReply covers the extractor claiming completion while handing
	// over zero roles. That contract violation must not reach the matching
	// path, so the conversation is pushed back into gathering.
	repromptReply = "I couldn't pin down any concrete roles from that yet. Could you tell me a bit more about the project, for example what kind of product you are building and which parts need staffing?"
)

// Conversation runs the requirement-gathering state machine over a
// caller-managed history. It holds no per-session state: every turn
// receives the full ordered history.
type Conversation struct {
	extractor RoleExtractor
	timeout   time.Duration
}

// NewConversation wires the conversation service to its extractor.
// timeout bounds a single extractor pass; zero means 30s.
func NewConversation(extractor RoleExtractor, timeout time.Duration) *Conversation {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Conversation{
		extractor: extractor,
		timeout:   timeout,
	}
}

// Turn processes one chat request. Validation failures return an error;
// extractor failures degrade to an apology turn so the caller can retry
// within the same conversation.
func (c *Conversation) Turn(ctx context.Context, history []types.ChatMessage) (*types.ChatTurn, error) {
	if !hasUserTurn(history) {
		return nil, ErrNoUserTurn
	}

	extractCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	extraction, err := c.extractor.ExtractRoles(extractCtx, history)
	if err != nil {
		logger.Warn().Err(err).Int("history_len", len(history)).
			Msg("role extraction failed, degrading to apology turn")
		return &types.ChatTurn{
			Role:       types.ChatRoleAssistant,
			Content:    apologyReply,
			IsComplete: false,
		}, nil
	}

	if extraction.Complete && len(extraction.Roles) == 0 {
		logger.Warn().Int("history_len", len(history)).
			Msg("extractor reported completion without roles, re-prompting")
		return &types.ChatTurn{
			Role:       types.ChatRoleAssistant,
			Content:    repromptReply,
			IsComplete: false,
		}, nil
	}

	turn := &types.ChatTurn{
		Role:       types.ChatRoleAssistant,
		Content:    extraction.Reply,
		IsComplete: extraction.Complete,
	}
	if extraction.Complete {
		turn.Roles = extraction.Roles
	}
	return turn, nil
}

func hasUserTurn(history []types.ChatMessage) bool {
	for _, msg := range history {
		if msg.Role == types.ChatRoleUser {
			return true
		}
	}
	return false
}
