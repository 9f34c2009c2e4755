package chat

import (
	"context"
	"errors"
	"testing"

	"consultant-match-go/internal/types"

	"github.com/cloudwego/eino/components/model"
	einoschema "github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChatModel struct {
	replies []string
	errs    []error
	calls   int
	seen    [][]*einoschema.Message
}

func (m *stubChatModel) Generate(ctx context.Context, messages []*einoschema.Message, options ...model.Option) (*einoschema.Message, error) {
	idx := m.calls
	m.calls++
	m.seen = append(m.seen, messages)
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	reply := ""
	if idx < len(m.replies) {
		reply = m.replies[idx]
	}
	return &einoschema.Message{Role: einoschema.Assistant, Content: reply}, nil
}

func (m *stubChatModel) Stream(ctx context.Context, messages []*einoschema.Message, options ...model.Option) (*einoschema.StreamReader[*einoschema.Message], error) {
	return nil, errors.New("not implemented")
}

func (m *stubChatModel) WithTools(tools []*einoschema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

const rolesReply = `Great, here's the team I'd suggest.

<roles>
{
  "roles": [
    {
      "title": "Backend Engineer",
      "description": "Owns the API",
      "query": "Backend developer with Go experience",
      "requiredSkills": ["Go", "PostgreSQL"]
    },
    {
      "title": "Frontend Engineer",
      "description": "Owns the UI",
      "query": "Frontend developer with React experience",
      "requiredSkills": ["React"]
    }
  ]
}
</roles>

Let me know if you want adjustments.`

func TestExtractRolesParsesAndStripsBlock(t *testing.T) {
	m := &stubChatModel{replies: []string{rolesReply}}
	extractor := NewLLMRoleExtractor(m, nil)

	extraction, err := extractor.ExtractRoles(context.Background(), []types.ChatMessage{
		{Role: types.ChatRoleUser, Content: "I need a team for a web app, ASAP"},
	})
	require.NoError(t, err)

	assert.True(t, extraction.Complete)
	require.Len(t, extraction.Roles, 2)
	assert.Equal(t, "Backend Engineer", extraction.Roles[0].Title)
	assert.Equal(t, []string{"Go", "PostgreSQL"}, extraction.Roles[0].RequiredSkills)
	assert.Equal(t, "Frontend Engineer", extraction.Roles[1].Title)

	assert.NotContains(t, extraction.Reply, "<roles>")
	assert.NotContains(t, extraction.Reply, "</roles>")
	assert.Contains(t, extraction.Reply, "Great, here's the team I'd suggest.")
	assert.Contains(t, extraction.Reply, "Let me know if you want adjustments.")
}

func TestExtractRolesWithoutBlockStaysIncomplete(t *testing.T) {
	m := &stubChatModel{replies: []string{"Could you tell me more about the project?"}}
	extractor := NewLLMRoleExtractor(m, nil)

	extraction, err := extractor.ExtractRoles(context.Background(), []types.ChatMessage{
		{Role: types.ChatRoleUser, Content: "hello"},
	})
	require.NoError(t, err)
	assert.False(t, extraction.Complete)
	assert.Nil(t, extraction.Roles)
	assert.Equal(t, "Could you tell me more about the project?", extraction.Reply)
}

func TestExtractRolesMalformedBlockDegradesToIncomplete(t *testing.T) {
	m := &stubChatModel{replies: []string{"Here you go <roles>{not valid json}</roles>"}}
	extractor := NewLLMRoleExtractor(m, nil)

	extraction, err := extractor.ExtractRoles(context.Background(), []types.ChatMessage{
		{Role: types.ChatRoleUser, Content: "team please"},
	})
	require.NoError(t, err)
	assert.False(t, extraction.Complete)
	assert.Nil(t, extraction.Roles)
}

func TestExtractRolesSendsSystemPromptFirst(t *testing.T) {
	m := &stubChatModel{replies: []string{"ok"}}
	extractor := NewLLMRoleExtractor(m, nil)

	history := []types.ChatMessage{
		{Role: types.ChatRoleUser, Content: "first"},
		{Role: types.ChatRoleAssistant, Content: "reply"},
		{Role: types.ChatRoleUser, Content: "second"},
	}
	_, err := extractor.ExtractRoles(context.Background(), history)
	require.NoError(t, err)

	require.Len(t, m.seen, 1)
	sent := m.seen[0]
	require.Len(t, sent, 4)
	assert.Equal(t, einoschema.System, sent[0].Role)
	assert.Equal(t, "first", sent[1].Content)
	assert.Equal(t, "second", sent[3].Content)
}

func TestCallLLMRetriesTransientErrors(t *testing.T) {
	m := &stubChatModel{
		errs:    []error{errors.New("connection reset by peer")},
		replies: []string{"", "recovered"},
	}
	extractor := NewLLMRoleExtractor(m, nil)

	extraction, err := extractor.ExtractRoles(context.Background(), []types.ChatMessage{
		{Role: types.ChatRoleUser, Content: "hi"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, m.calls)
	assert.Equal(t, "recovered", extraction.Reply)
}

func TestCallLLMDoesNotRetryPermanentErrors(t *testing.T) {
	m := &stubChatModel{errs: []error{errors.New("invalid api key")}}
	extractor := NewLLMRoleExtractor(m, nil)

	_, err := extractor.ExtractRoles(context.Background(), []types.ChatMessage{
		{Role: types.ChatRoleUser, Content: "hi"},
	})
	require.Error(t, err)
	assert.Equal(t, 1, m.calls)
}
