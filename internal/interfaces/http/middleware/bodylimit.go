package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

// BodyLimit rejects bodies whose declared length exceeds maxBytes and caps the
// reader for chunked uploads
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			abortWithError(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge,
				"Request body exceeds maximum allowed size")
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
