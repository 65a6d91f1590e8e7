package booking

import (
	"net/http"
	"strconv"

	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/pkg/response"
	"bikeworkshop/internal/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service    *Service
	dispatcher Dispatcher
}

func NewHandler(service *Service, dispatcher Dispatcher) *Handler {
	return &Handler{service: service, dispatcher: dispatcher}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	g := protected.Group("/bookings")
	{
		g.POST("", h.Create)
		g.GET("", h.MyBookings)
		g.GET("/:id", h.Get)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Cancel)
		g.PUT("/:id/apply-discount", h.ApplyDiscount)
	}
}

// RegisterAdminRoutes expects admin to already require an admin role.
func (h *Handler) RegisterAdminRoutes(admin *gin.RouterGroup) {
	g := admin.Group("/bookings")
	{
		g.GET("", h.AdminList)
		g.PUT("/:id", h.AdminUpdate)
		g.DELETE("/:id", h.AdminDelete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, effects, err := h.service.Create(c.Request.Context(), c.GetInt64("user_id"), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Booking created successfully", b)
	h.dispatcher.Dispatch(effects...)
}

func (h *Handler) MyBookings(c *gin.Context) {
	list, err := h.service.MyBookings(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Bookings retrieved", gin.H{"bookings": list})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.Get(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Booking retrieved", b)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.UserEdit(c.Request.Context(), c.GetInt64("user_id"), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Booking updated successfully", b)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	res, err := h.service.UserCancel(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}

	msg := "Booking cancelled successfully"
	if res.RefundedPoints > 0 {
		msg = "Booking cancelled successfully. " + strconv.FormatInt(res.RefundedPoints, 10) + " loyalty points have been refunded."
	}
	response.Success(c, http.StatusOK, msg, res)
}

func (h *Handler) ApplyDiscount(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	out, effects, err := h.service.ApplyDiscount(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Discount applied successfully", out)
	h.dispatcher.Dispatch(effects...)
}

func (h *Handler) AdminList(c *gin.Context) {
	q := AdminListQuery{
		Page:   utils.AtoiDefault(c.Query("page"), 1),
		Limit:  utils.AtoiDefault(c.Query("limit"), utils.DefaultPageLimit),
		Search: c.Query("search"),
	}
	out, err := h.service.AdminList(c.Request.Context(), c.GetInt64("user_id"), q)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Bookings retrieved", out)
}

func (h *Handler) AdminUpdate(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req AdminUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, effects, err := h.service.AdminUpdate(c.Request.Context(), c.GetInt64("user_id"), id, req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Booking updated successfully", b)
	h.dispatcher.Dispatch(effects...)
}

func (h *Handler) AdminDelete(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, effects, err := h.service.AdminDelete(c.Request.Context(), c.GetInt64("user_id"), id)
	if err != nil {
		response.Fail(c, err)
		return
	}

	msg := "Booking archived"
	if len(effects) > 0 {
		msg = "Booking cancelled and archived"
	}
	response.Success(c, http.StatusOK, msg, b)
	h.dispatcher.Dispatch(effects...)
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, apperr.Validation("Invalid booking id"))
		return 0, false
	}
	return id, true
}
