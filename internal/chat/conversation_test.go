package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"consultant-match-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	extraction *Extraction
	err        error
	calls      int
}

func (s *stubExtractor) ExtractRoles(ctx context.Context, history []types.ChatMessage) (*Extraction, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.extraction, nil
}

func userTurn(content string) types.ChatMessage {
	return types.ChatMessage{Role: types.ChatRoleUser, Content: content}
}

func TestTurnRequiresUserMessage(t *testing.T) {
	extractor := &stubExtractor{}
	conv := NewConversation(extractor, time.Second)

	_, err := conv.Turn(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoUserTurn)

	_, err = conv.Turn(context.Background(), []types.ChatMessage{
		{Role: types.ChatRoleAssistant, Content: "hello"},
	})
	assert.ErrorIs(t, err, ErrNoUserTurn)
	assert.Zero(t, extractor.calls, "extractor must not run without a user turn")
}

func TestTurnPassesThroughIncompleteExtraction(t *testing.T) {
	extractor := &stubExtractor{extraction: &Extraction{
		Reply: "What kind of project is it?",
	}}
	conv := NewConversation(extractor, time.Second)

	turn, err := conv.Turn(context.Background(), []types.ChatMessage{userTurn("hello")})
	require.NoError(t, err)
	assert.Equal(t, types.ChatRoleAssistant, turn.Role)
	assert.Equal(t, "What kind of project is it?", turn.Content)
	assert.False(t, turn.IsComplete)
	assert.Nil(t, turn.Roles)
}

func TestTurnReturnsRolesOnCompletion(t *testing.T) {
	roles := []types.RoleSpecification{
		{Title: "Backend Engineer", RequiredSkills: []string{"Go"}},
	}
	extractor := &stubExtractor{extraction: &Extraction{
		Reply:    "Here is your team.",
		Complete: true,
		Roles:    roles,
	}}
	conv := NewConversation(extractor, time.Second)

	turn, err := conv.Turn(context.Background(), []types.ChatMessage{userTurn("urgent web app")})
	require.NoError(t, err)
	assert.True(t, turn.IsComplete)
	assert.Equal(t, roles, turn.Roles)
}

func TestTurnDegradesToApologyOnExtractorFailure(t *testing.T) {
	extractor := &stubExtractor{err: errors.New("llm unavailable")}
	conv := NewConversation(extractor, time.Second)

	turn, err := conv.Turn(context.Background(), []types.ChatMessage{userTurn("hi")})
	require.NoError(t, err, "extractor failures must stay recoverable")
	assert.Equal(t, types.ChatRoleAssistant, turn.Role)
	assert.False(t, turn.IsComplete)
	assert.Nil(t, turn.Roles)
	assert.NotEmpty(t, turn.Content)
}

func TestTurnRepromptsOnCompletionWithoutRoles(t *testing.T) {
	extractor := &stubExtractor{extraction: &Extraction{
		Reply:    "Done!",
		Complete: true,
		Roles:    nil,
	}}
	conv := NewConversation(extractor, time.Second)

	turn, err := conv.Turn(context.Background(), []types.ChatMessage{userTurn("make a team")})
	require.NoError(t, err)
	assert.False(t, turn.IsComplete, "empty-role completion must not escape")
	assert.Nil(t, turn.Roles)
	assert.NotEmpty(t, turn.Content)
	assert.NotEqual(t, "Done!", turn.Content)
}
