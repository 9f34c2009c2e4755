package handler

import (
	"context"

	"consultant-match-go/internal/logger"
	"consultant-match-go/internal/overview"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// OverviewHandler serves the corpus statistics endpoint.
type OverviewHandler struct {
	aggregator *overview.Aggregator
}

// NewOverviewHandler creates an OverviewHandler.
func NewOverviewHandler(aggregator *overview.Aggregator) *OverviewHandler {
	return &OverviewHandler{aggregator: aggregator}
}

// HandleOverview recomputes and returns the corpus snapshot. Store
// failures surface as errors, never as a zeroed snapshot.
// GET /api/overview
func (h *OverviewHandler) HandleOverview(ctx context.Context, c *app.RequestContext) {
	snapshot, err := h.aggregator.Snapshot(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("overview snapshot failed")
		c.JSON(consts.StatusInternalServerError, utils.H{"error": "internal error"})
		return
	}

	c.JSON(consts.StatusOK, snapshot)
}
