package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bikeworkshop/internal/pkg/apperr"
)

func Success(c *gin.Context, statusCode int, message string, data any) {
	body := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(statusCode, body)
}

func Error(c *gin.Context, statusCode int, code string, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": message,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func ErrorWithDetails(c *gin.Context, statusCode int, code string, message string, details any) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": message,
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

// Fail writes err using its apperr kind. Unknown errors are attached to the
// gin context for the error logger and answered with a generic 500.
func Fail(c *gin.Context, err error) {
	ae, ok := apperr.As(err)
	if !ok || ae.Kind == apperr.KindInternal {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, apperr.KindInternal.String(), "Something went wrong. Please try again later.")
		return
	}
	Error(c, ae.Kind.HTTPStatus(), ae.Code, ae.Message)
}

func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
	c.Abort()
}

func Forbidden(c *gin.Context, message string) {
	Error(c, http.StatusForbidden, "FORBIDDEN", message)
	c.Abort()
}
