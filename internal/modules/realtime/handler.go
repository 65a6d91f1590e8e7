package realtime

import (
	"net/http"

	"bikeworkshop/internal/pkg/jwt"
	"bikeworkshop/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

type Handler struct {
	hub      *Hub
	tokens   TokenValidator
	upgrader websocket.Upgrader
}

// NewHandler accepts browser origins from allowedOrigins; an empty list
// accepts any origin.
func NewHandler(hub *Hub, tokens TokenValidator, allowedOrigins []string) *Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Handler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ws", h.Connect)
}

// Connect upgrades GET /ws?token=JWT. Browsers cannot set headers on a
// websocket handshake, so the token travels in the query.
func (h *Handler) Connect(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Unauthorized(c, "Token is required")
		return
	}
	claims, err := h.tokens.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "Invalid or expired token")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	h.hub.serve(conn, claims.UserID)
}
