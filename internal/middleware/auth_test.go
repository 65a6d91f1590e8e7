package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bikeworkshop/internal/domain"
	"bikeworkshop/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestJWTAuth_ValidToken(t *testing.T) {
	// Arrange
	secret := "test-secret-123"
	jwtService := jwt.New(secret, 1*time.Hour)
	validToken, _ := jwtService.GenerateToken(42, "customer")

	router := gin.New()
	router.Use(JWTAuth(jwtService))

	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetInt64("user_id"),
			"role":    c.GetString("role"),
		})
	})

	// Act
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	router.ServeHTTP(w, req)

	// Assert
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "42")
	assert.Contains(t, w.Body.String(), "customer")
}

func TestJWTAuth_Rejections(t *testing.T) {
	jwtService := jwt.New("secret", 1*time.Hour)
	otherToken, _ := jwt.New("wrong-secret", time.Hour).GenerateToken(42, "customer")

	tests := []struct {
		name   string
		header string
	}{
		{"no token", ""},
		{"invalid token", "Bearer invalid-jwt-here"},
		{"other secret", "Bearer " + otherToken},
		{"wrong format", "Token abc"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(JWTAuth(jwtService))
			router.GET("/protected", func(c *gin.Context) {
				t.Fatal("This handler should not be reached")
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest("GET", "/protected", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
		})
	}
}

func TestAdminOnly(t *testing.T) {
	tests := []struct {
		role string
		want int
	}{
		{string(domain.RoleAdmin), http.StatusOK},
		{string(domain.RoleSuperAdmin), http.StatusOK},
		{string(domain.RoleCustomer), http.StatusForbidden},
		{"", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			router := gin.New()
			router.Use(func(c *gin.Context) {
				if tt.role != "" {
					c.Set("role", tt.role)
				}
				c.Next()
			}, AdminOnly())
			router.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/admin", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	router := gin.New()
	router.Use(RateLimit(2, zap.New(core)))
	router.GET("/pay", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/pay", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, 1, logs.FilterMessage("rate limit exceeded").Len())
}

func TestErrorLogger_RecoversPanic(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	router := gin.New()
	router.Use(RequestID(), ErrorLogger(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	entries := logs.FilterMessage("request_error").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "panic", entries[0].ContextMap()["type"])
	}
}

func TestRequestID_KeepsIncoming(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
