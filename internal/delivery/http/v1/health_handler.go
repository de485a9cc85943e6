package v1

import (
	"net/http"

	"portfolio-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	healthUC domain.HealthUsecase
}

func NewHealthHandler(api *gin.RouterGroup, healthUC domain.HealthUsecase) {
	handler := &HealthHandler{healthUC: healthUC}
	api.GET("/health", handler.Check)
}

// Check godoc
// @Summary      Health Check
// @Description  Reports service status. "degraded" means the rate-limit store is unreachable.
// @Tags         system
// @Produce      json
// @Success      200  {object}  domain.HealthStatus
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, h.healthUC.Check(c.Request.Context()))
}
