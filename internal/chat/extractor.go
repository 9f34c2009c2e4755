// Package chat drives the requirement-gathering conversation: it turns a
// caller-managed message history into an assistant reply and, once the
// requirements are clear, a set of extracted role specifications.
package chat

import (
	"context"

	"consultant-match-go/internal/types"
)

// Extraction is one extractor pass over the conversation history.
// Complete marks the conversation as finished; Roles carries the extracted
// role specifications and may only be consumed when Complete is true.
type Extraction struct {
	Reply    string
	Complete bool
	Roles    []types.RoleSpecification
}

// RoleExtractor produces the assistant reply and role extraction for a
// conversation history. Implementations must be safe for concurrent use.
type RoleExtractor interface {
	ExtractRoles(ctx context.Context, history []types.ChatMessage) (*Extraction, error)
}
