package auth

import (
	"errors"
	"net/http"

	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Handler manages all HTTP interactions for authentication
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterPublicRoutes(v1 *gin.RouterGroup) {
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}
}

func (h *Handler) RegisterProtectedRoutes(protected *gin.RouterGroup) {
	protected.GET("/auth/me", h.GetMe)
}

// Register godoc
// @Summary      Register a customer
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Account details"
// @Success      201 {object} UserResponse
// @Failure      400 {object} map[string]interface{} "Validation error or email already registered"
// @Router       /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	user, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, "Registration successful", NewUserResponse(user))
}

// Login godoc
// @Summary      Log in
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200 {object} LoginResponse
// @Failure      401 {object} map[string]interface{} "Wrong email or password"
// @Router       /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			response.Error(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
			return
		}
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "Login successful", res)
}

func (h *Handler) GetMe(c *gin.Context) {
	user, err := h.service.GetCurrentUser(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, "User retrieved", NewUserResponse(user))
}
