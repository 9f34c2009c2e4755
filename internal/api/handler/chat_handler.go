// Package handler contains the HTTP handlers. Handlers only translate
// between the wire format and the domain services; no business logic
// lives here.
package handler

import (
	"context"
	"errors"

	"consultant-match-go/internal/chat"
	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ChatHandler serves the requirement-gathering conversation endpoint.
type ChatHandler struct {
	conversation *chat.Conversation
}

// NewChatHandler creates a ChatHandler.
func NewChatHandler(conversation *chat.Conversation) *ChatHandler {
	return &ChatHandler{conversation: conversation}
}

type chatRequest struct {
	Messages []types.ChatMessage `json:"messages"`
}

// HandleChat processes one conversation turn.
// POST /api/chat
func (h *ChatHandler) HandleChat(ctx context.Context, c *app.RequestContext) {
	var req chatRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body: " + err.Error()})
		return
	}

	turn, err := h.conversation.Turn(ctx, req.Messages)
	if err != nil {
		if errors.Is(err, chat.ErrNoUserTurn) {
			c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		logger.Error().Err(err).Msg("chat turn failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
		return
	}

	c.JSON(consts.StatusOK, turn)
}
