package catalog

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

func (h *Handler) RegisterRoutes(v1 *gin.RouterGroup) {
	v1.GET("/workshops", h.GetWorkshops)
	v1.GET("/workshops/:id/services", h.GetServices)
}

// GetWorkshops handles GET /api/v1/workshops
func (h *Handler) GetWorkshops(c *gin.Context) {
	out, err := h.service.Workshops(c.Request.Context())
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Workshops retrieved", out)
}

// GetServices handles GET /api/v1/workshops/:id/services
func (h *Handler) GetServices(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, apperr.Validation("Invalid workshop id"))
		return
	}
	out, err := h.service.Services(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Services retrieved", out)
}
