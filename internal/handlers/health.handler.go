package handlers

import (
	"context"

	"github.com/fasthttp/router"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
)

type HealthService interface {
	Get(ctx context.Context) error
}
type HealthHandler struct {
	healthService HealthService
}

func RegisterHealthRoutes(e *router.Group, h *HealthHandler) {
	e.GET("/health", h.GetHealth)
}

func NewHealthHandler(healthService HealthService) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

func (h *HealthHandler) GetHealth(ctx *xhttp.RequestCtx) {
	if err := h.healthService.Get(ctx); err != nil {
		logger.Warn("health check failed", "error", err)
		writeError(ctx, xhttp.StatusServiceUnavailable, "unhealthy")
		return
	}
	ctx.Response.SetBodyString("success")
}
