package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/drivingschool-api/internal/dto"
	"github.com/noah-isme/drivingschool-api/internal/middleware"
	"github.com/noah-isme/drivingschool-api/internal/models"
	appErrors "github.com/noah-isme/drivingschool-api/pkg/errors"
	"github.com/noah-isme/drivingschool-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, claims *models.JWTClaims) (*dto.DashboardSummary, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Landing dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, middleware.ResponseMeta(c))
}
