package invoice

import (
	"net/http"
	"strconv"

	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes expects admin to already require an admin role.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	admin.GET("/bookings/:id/invoice", h.Download)
}

func (h *Handler) Download(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, apperr.Validation("Invalid booking id"))
		return
	}
	data, name, err := h.service.Render(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
