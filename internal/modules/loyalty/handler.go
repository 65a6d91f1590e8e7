package loyalty

import (
	"net/http"

	"bikeworkshop/internal/pkg/response"
	"bikeworkshop/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/loyalty/me", h.GetMine)
}

func (h *Handler) GetMine(c *gin.Context) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Unauthorized(c, "User not authenticated")
		return
	}

	limit := utils.AtoiDefault(c.Query("limit"), defaultHistoryLimit)
	out, err := h.service.Summary(c.Request.Context(), userID, limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Loyalty summary", out)
}
