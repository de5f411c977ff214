// Package testutil holds helpers shared by the bookkeeping tests: a sqlmock
// backed GORM handle, gin contexts, fixed clocks, money literals and JSON
// requests against a mounted engine.
package testutil

import (
	"database/sql"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/domain/shared/valueobject"
	"github.com/joaodebarro/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockDB is a postgres-dialect GORM handle whose statements go to sqlmock.
type MockDB struct {
	DB    *gorm.DB
	Mock  sqlmock.Sqlmock
	SqlDB *sql.DB
}

// NewMockDB opens a MockDB and closes it when the test ends. Expectations are
// checked by the caller through ExpectationsWereMet.
func NewMockDB(t *testing.T) *MockDB {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create sqlmock")
	t.Cleanup(func() { _ = sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB, DriverName: "postgres"}), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err, "Failed to open GORM connection")

	return &MockDB{DB: gormDB, Mock: mock, SqlDB: sqlDB}
}

// ExpectationsWereMet fails the test on unmet or unexpected statements.
func (m *MockDB) ExpectationsWereMet(t *testing.T) {
	t.Helper()
	require.NoError(t, m.Mock.ExpectationsWereMet(), "Unmet database expectations")
}

// TestContext is a gin context recording its response.
type TestContext struct {
	Context  *gin.Context
	Recorder *httptest.ResponseRecorder
}

// NewTestContext builds a context for a request with the given method and path.
func NewTestContext(method, path string) *TestContext {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, path, nil)
	return &TestContext{Context: c, Recorder: w}
}

// WithRequestID stores id the way the RequestID middleware does.
func (tc *TestContext) WithRequestID(id string) *TestContext {
	tc.Context.Set(middleware.RequestIDKey, id)
	return tc
}

// WithParam adds a route parameter such as :id.
func (tc *TestContext) WithParam(key, value string) *TestContext {
	tc.Context.Params = append(tc.Context.Params, gin.Param{Key: key, Value: value})
	return tc
}

// Code returns the recorded status code.
func (tc *TestContext) Code() int {
	return tc.Recorder.Code
}

// ClockAt returns a clock frozen at noon UTC of the given day, so that "today"
// is the same calendar date in every time zone the tests run in.
func ClockAt(year int, month time.Month, day int) shared.FixedClock {
	return shared.FixedClock{At: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

// BRL builds a Money in reais from a decimal literal.
func BRL(t *testing.T, amount string) valueobject.Money {
	t.Helper()
	m, err := valueobject.NewMoney(decimal.RequireFromString(amount), valueobject.DefaultCurrency)
	require.NoError(t, err)
	return m
}

// RequireEventually retries condition until it holds or the timeout elapses.
func RequireEventually(t *testing.T, condition func() bool, timeout, interval time.Duration, msgAndArgs ...any) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(interval)
	}
	require.Fail(t, "Condition not met within timeout", msgAndArgs...)
}
