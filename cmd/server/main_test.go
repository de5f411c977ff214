package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/joaodebarro/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestServe(t *testing.T) {
	t.Run("returns cleanly once the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}
		assert.NoError(t, serve(ctx, srv, zap.NewNop()))
	})

	t.Run("reports a listener failure", func(t *testing.T) {
		busy, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		defer busy.Close()

		srv := &http.Server{Addr: busy.Addr().String(), Handler: http.NotFoundHandler()}
		done := make(chan error, 1)
		go func() { done <- serve(context.Background(), srv, zap.NewNop()) }()

		select {
		case err := <-done:
			assert.ErrorContains(t, err, "listen on "+busy.Addr().String())
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not return")
		}
	})
}

func TestCleanup_ReverseOrder(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	var order []string

	var c cleanup
	c.add("database", func(context.Context) error { order = append(order, "database"); return nil })
	c.add("preference store", func(context.Context) error {
		order = append(order, "preference store")
		return errors.New("connection reset")
	})
	c.run(zap.New(core))

	assert.Equal(t, []string{"preference store", "database"}, order)
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Error closing preference store", logs.All()[0].Message)
}

func TestNewEngine(t *testing.T) {
	cfg := &config.Config{
		App: config.AppConfig{Env: "test"},
		HTTP: config.HTTPConfig{
			MaxBodySize:      1 << 10,
			RequestTimeout:   time.Second,
			CORSAllowOrigins: []string{"http://localhost:5173"},
			CORSAllowMethods: []string{http.MethodGet},
			CORSAllowHeaders: []string{"Content-Type"},
			RateLimitEnabled: true,
			RateLimitRPS:     1,
			RateLimitBurst:   1,
		},
	}

	engine, err := newEngine(cfg, zap.NewNop(), nil)
	require.NoError(t, err)
	engine.GET("/api/v1/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w
	}

	w := send()
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "X-RateLimit-Remaining")

	assert.Equal(t, http.StatusTooManyRequests, send().Code)
}
