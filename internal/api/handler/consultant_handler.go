package handler

import (
	"context"
	"errors"
	"strconv"

	"consultant-match-go/internal/consultant"
	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/types"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// ConsultantHandler serves the consultant CRUD endpoints.
type ConsultantHandler struct {
	svc *consultant.Service
}

// NewConsultantHandler creates a ConsultantHandler.
func NewConsultantHandler(svc *consultant.Service) *ConsultantHandler {
	return &ConsultantHandler{svc: svc}
}

type ingestRequest struct {
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Phone        string   `json:"phone"`
	Skills       []string `json:"skills"`
	Availability string   `json:"availability"`
	Experience   string   `json:"experience"`
	Education    string   `json:"education"`
}

type deleteBatchRequest struct {
	IDs []string `json:"ids"`
}

// HandleList returns stored consultants.
// GET /api/consultants
func (h *ConsultantHandler) HandleList(ctx context.Context, c *app.RequestContext) {
	limit := 100
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	profiles, err := h.svc.List(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("list consultants failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"consultants": profiles})
}

// HandleIngest stores a new consultant record.
// POST /api/consultants
func (h *ConsultantHandler) HandleIngest(ctx context.Context, c *app.RequestContext) {
	var req ingestRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body: " + err.Error()})
		return
	}

	profile := types.ConsultantProfile{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Skills:       req.Skills,
		Availability: types.ParseAvailability(req.Availability),
		Experience:   req.Experience,
		Education:    req.Education,
	}

	id, err := h.svc.Ingest(ctx, profile)
	if err != nil {
		if errors.Is(err, consultant.ErrInvalidProfile) {
			c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
			return
		}
		logger.Error().Err(err).Msg("consultant ingest failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"id": id})
}

// HandleDelete removes one consultant.
// DELETE /api/consultants/:id
func (h *ConsultantHandler) HandleDelete(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if id == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "consultant ID is required"})
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		logger.Error().Err(err).Str("consultant_id", id).Msg("delete consultant failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
		return
	}

	c.JSON(consts.StatusOK, utils.H{"success": true, "id": id})
}

// HandleDeleteBatch removes several consultants, reporting partial
// success.
// DELETE /api/consultants
func (h *ConsultantHandler) HandleDeleteBatch(ctx context.Context, c *app.RequestContext) {
	var req deleteBatchRequest
	if err := c.BindAndValidate(&req); err != nil {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": "at least one consultant ID is required"})
		return
	}

	result, err := h.svc.DeleteBatch(ctx, req.IDs)
	if err != nil {
		logger.Error().Err(err).Msg("batch delete failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
		return
	}

	c.JSON(consts.StatusOK, utils.H{
		"success":       len(result.Errors) == 0,
		"deleted_count": result.DeletedCount,
		"errors":        result.Errors,
	})
}
