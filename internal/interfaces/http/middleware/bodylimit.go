package middleware

import (
	"net/http"

	"github.com/agency/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit answers 413 when the declared Content-Length exceeds maxBytes and
// caps undeclared bodies while they stream. maxBytes <= 0 disables it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
