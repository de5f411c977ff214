package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/joaodebarro/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMockDB(t *testing.T) {
	mockDB := NewMockDB(t)

	mockDB.Mock.ExpectExec(`DELETE FROM receivables`).WillReturnResult(sqlmock.NewResult(0, 3))
	res := mockDB.DB.Exec("DELETE FROM receivables")
	require.NoError(t, res.Error)
	assert.EqualValues(t, 3, res.RowsAffected)

	mockDB.ExpectationsWereMet(t)
}

func TestTestContext(t *testing.T) {
	tc := NewTestContext(http.MethodDelete, "/api/v1/payables/abc").
		WithRequestID("req-123").
		WithParam("id", "abc")

	assert.Equal(t, http.MethodDelete, tc.Context.Request.Method)
	assert.Equal(t, "abc", tc.Context.Param("id"))
	val, ok := tc.Context.Get(middleware.RequestIDKey)
	assert.True(t, ok)
	assert.Equal(t, "req-123", val)

	tc.Context.Status(http.StatusNoContent)
	tc.Context.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, tc.Code())
}

func TestClockAt(t *testing.T) {
	clock := ClockAt(2026, time.March, 10)
	assert.Equal(t, shared.Date(2026, time.March, 10), shared.Today(clock))
}

func TestBRL(t *testing.T) {
	m := BRL(t, "10.005")
	assert.Equal(t, "10.01", m.Amount().StringFixed(2))
	assert.Equal(t, "BRL", string(m.Currency()))
}

func TestRequireEventually(t *testing.T) {
	done := make(chan struct{})
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(done)
	}()

	RequireEventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 5*time.Millisecond)
}

func TestRunRouteCases(t *testing.T) {
	engine := gin.New()
	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"message": "pong"}))
	})
	engine.POST("/receivables", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil || body["customerName"] == "" {
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.ErrCodeValidation, "customerName is required"))
			return
		}
		c.JSON(http.StatusCreated, dto.NewSuccessResponse(body))
	})

	RunRouteCases(t, engine, []RouteCase{
		{
			Name:       "ping",
			Path:       "/ping",
			WantStatus: http.StatusOK,
			Check: func(t *testing.T, w *httptest.ResponseRecorder) {
				data := RequireData[map[string]string](t, w, http.StatusOK)
				assert.Equal(t, "pong", data["message"])
			},
		},
		{
			Name:       "create echoes the body",
			Method:     http.MethodPost,
			Path:       "/receivables",
			Body:       map[string]any{"customerName": "Alfa"},
			WantStatus: http.StatusCreated,
		},
		{
			Name:       "missing customer",
			Method:     http.MethodPost,
			Path:       "/receivables",
			Body:       map[string]any{"customerName": ""},
			WantStatus: http.StatusBadRequest,
			WantCode:   dto.ErrCodeValidation,
		},
		{
			Name:       "unknown route",
			Path:       "/nope",
			WantStatus: http.StatusNotFound,
		},
	})
}
