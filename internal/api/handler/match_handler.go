package handler

import (
	"context"
	"errors"

	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/matching"
	"consultant-match-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// MatchHandler serves both match endpoints. They share one service; each
// handler only selects the response arm.
type MatchHandler struct {
	svc *matching.Service
}

// NewMatchHandler creates a MatchHandler.
func NewMatchHandler(svc *matching.Service) *MatchHandler {
	return &MatchHandler{svc: svc}
}

type matchProjectRequest struct {
	ProjectDescription string `json:"projectDescription"`
}

type matchRolesRequest struct {
	Roles []types.RoleSpecification `json:"roles"`
}

// HandleMatchProject is the legacy flat match over a free-form project
// description.
// POST /api/consultants/match
func (h *MatchHandler) HandleMatchProject(ctx context.Context, c *app.RequestContext) {
	var req matchProjectRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body: " + err.Error()})
		return
	}

	resp, err := h.svc.Match(ctx, matching.MatchRequest{ProjectDescription: req.ProjectDescription})
	if err != nil {
		writeMatchError(c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{"consultants": resp.Flat})
}

// HandleMatchRoles matches each extracted role separately, preserving
// role order.
// POST /api/consultants/match/roles
func (h *MatchHandler) HandleMatchRoles(ctx context.Context, c *app.RequestContext) {
	var req matchRolesRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body: " + err.Error()})
		return
	}

	roles := req.Roles
	if roles == nil {
		roles = []types.RoleSpecification{}
	}

	resp, err := h.svc.Match(ctx, matching.MatchRequest{Roles: roles})
	if err != nil {
		writeMatchError(c, err)
		return
	}

	c.JSON(consts.StatusOK, utils.H{"roles": resp.Roles})
}

// writeMatchError maps pipeline errors onto HTTP statuses: input errors to
// 400, collaborator timeouts to 504, other collaborator failures to 502.
func writeMatchError(c *app.RequestContext, err error) {
	switch {
	case errors.Is(err, matching.ErrEmptyQuery), errors.Is(err, matching.ErrNoRoles):
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
	case matching.IsTimeout(err):
		logger.Error().Err(err).Msg("match request timed out")
		c.JSON(consts.StatusGatewayTimeout, utils.H{"error": "collaborator timed out"})
	case errors.Is(err, matching.ErrCollaborator):
		logger.Error().Err(err).Msg("match collaborator failed")
		c.JSON(consts.StatusBadGateway, utils.H{"error": "upstream collaborator failed"})
	default:
		logger.Error().Err(err).Msg("match request failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
	}
}
