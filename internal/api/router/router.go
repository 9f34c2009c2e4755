// Package router wires the HTTP surface onto the handlers.
package router

import (
	"context"

	"consultant-match-go/internal/api/handler"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
)

// RegisterRoutes registers all API routes.
func RegisterRoutes(
	h *server.Hertz,
	chatHandler *handler.ChatHandler,
	matchHandler *handler.MatchHandler,
	consultantHandler *handler.ConsultantHandler,
	overviewHandler *handler.OverviewHandler,
) {
	api := h.Group("/api")

	api.POST("/chat", chatHandler.HandleChat)

	api.POST("/consultants/match", matchHandler.HandleMatchProject)
	api.POST("/consultants/match/roles", matchHandler.HandleMatchRoles)

	api.GET("/consultants", consultantHandler.HandleList)
	api.POST("/consultants", consultantHandler.HandleIngest)
	api.DELETE("/consultants/:id", consultantHandler.HandleDelete)
	api.DELETE("/consultants", consultantHandler.HandleDeleteBatch)

	api.GET("/overview", overviewHandler.HandleOverview)

	api.GET("/health", func(c context.Context, ctx *app.RequestContext) {
		ctx.JSON(consts.StatusOK, utils.H{"status": "ok"})
	})
}
