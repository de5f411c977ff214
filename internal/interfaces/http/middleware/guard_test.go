package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecure(t *testing.T) {
	router := gin.New()
	router.Use(Secure())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	for header, value := range securityHeaders {
		assert.Equal(t, value, w.Header().Get(header), header)
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name         string
		timeout      time.Duration
		handler      gin.HandlerFunc
		wantDeadline bool
		wantStatus   int
	}{
		{
			name:         "fast handler keeps its response",
			timeout:      time.Second,
			handler:      func(c *gin.Context) { c.String(http.StatusOK, "ok") },
			wantDeadline: true,
			wantStatus:   http.StatusOK,
		},
		{
			name:         "silent handler past the deadline gets 504",
			timeout:      10 * time.Millisecond,
			handler:      func(c *gin.Context) { <-c.Request.Context().Done() },
			wantDeadline: true,
			wantStatus:   http.StatusGatewayTimeout,
		},
		{
			name:       "zero disables the deadline",
			handler:    func(c *gin.Context) { c.Status(http.StatusNoContent) },
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hasDeadline bool
			router := gin.New()
			router.Use(Timeout(tt.timeout))
			router.GET("/test", func(c *gin.Context) {
				_, hasDeadline = c.Request.Context().Deadline()
				tt.handler(c)
			})

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			require.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantDeadline, hasDeadline)
			if tt.wantStatus == http.StatusGatewayTimeout {
				assert.Equal(t, dto.ErrCodeTimeout, decodeResponse(t, w.Body.Bytes()).Error.Code)
			}
		})
	}
}
