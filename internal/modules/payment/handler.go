package payment

import (
	"fmt"
	"net/http"
	"strconv"

	"bikeworkshop/internal/modules/notification"
	"bikeworkshop/internal/pkg/apperr"
	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service    *Service
	dispatcher Dispatcher
}

func NewHandler(service *Service, dispatcher Dispatcher) *Handler {
	return &Handler{service: service, dispatcher: dispatcher}
}

// RegisterRoutes mounts the payment endpoints. limit, when set, runs before
// each of them.
func (h *Handler) RegisterRoutes(protected *gin.RouterGroup, limit ...gin.HandlerFunc) {
	g := protected.Group("/bookings", limit...)
	{
		g.PUT("/:id/pay", h.Pay)
		g.POST("/verify-khalti", h.VerifyKhalti)
		g.POST("/verify-esewa", h.VerifyEsewa)
	}
}

// Pay godoc
// @Summary      Confirm cash on delivery
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path int        true "Booking ID"
// @Param        body body PayRequest true "Payment method, must be COD"
// @Success      200 {object} PaymentResult
// @Router       /bookings/{id}/pay [put]
func (h *Handler) Pay(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, apperr.Validation("Invalid booking id"))
		return
	}
	var req PayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, effects, err := h.service.ConfirmCOD(c.Request.Context(), c.GetInt64("user_id"), id, req)
	h.respond(c, res, effects, err)
}

// VerifyKhalti godoc
// @Summary      Verify a Khalti payment
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body KhaltiVerifyRequest true "Widget token and amount in paisa"
// @Success      200 {object} PaymentResult
// @Router       /bookings/verify-khalti [post]
func (h *Handler) VerifyKhalti(c *gin.Context) {
	var req KhaltiVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, effects, err := h.service.VerifyKhalti(c.Request.Context(), c.GetInt64("user_id"), req)
	h.respond(c, res, effects, err)
}

// VerifyEsewa godoc
// @Summary      Verify an eSewa payment
// @Tags         Payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body EsewaVerifyRequest true "Transaction uuid and amount in rupees"
// @Success      200 {object} PaymentResult
// @Router       /bookings/verify-esewa [post]
func (h *Handler) VerifyEsewa(c *gin.Context) {
	var req EsewaVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	res, effects, err := h.service.VerifyEsewa(c.Request.Context(), c.GetInt64("user_id"), req)
	h.respond(c, res, effects, err)
}

func (h *Handler) respond(c *gin.Context, res *PaymentResult, effects []notification.Effect, err error) {
	if err != nil {
		response.Fail(c, err)
		return
	}
	msg := "Payment confirmed."
	if res.PointsAwarded > 0 {
		msg = fmt.Sprintf("Payment confirmed. You earned %d loyalty points.", res.PointsAwarded)
	}
	response.Success(c, http.StatusOK, msg, res)
	h.dispatcher.Dispatch(effects...)
}
