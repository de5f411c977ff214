package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Envelope is dto.Response with a typed payload, for decoding API answers.
type Envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

// DoJSON sends a request with body encoded as JSON through h. A nil body sends
// an empty request body.
func DoJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err, "Failed to marshal request body")
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

// Decode parses an API envelope, failing the test with the raw body on error.
func Decode[T any](t *testing.T, w *httptest.ResponseRecorder) Envelope[T] {
	t.Helper()

	var env Envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

// RequireData asserts the status and a success envelope, then returns the payload.
func RequireData[T any](t *testing.T, w *httptest.ResponseRecorder, status int) T {
	t.Helper()

	require.Equal(t, status, w.Code, w.Body.String())
	env := Decode[T](t, w)
	require.True(t, env.Success, w.Body.String())
	return env.Data
}

// AssertErrorCode asserts the status and the error code of a failed request.
func AssertErrorCode(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()

	assert.Equal(t, status, w.Code, w.Body.String())
	env := Decode[json.RawMessage](t, w)
	assert.False(t, env.Success)
	if assert.NotNil(t, env.Error, "Expected error object in response") {
		assert.Equal(t, code, env.Error.Code)
	}
}

// RouteCase is one request against a mounted engine.
type RouteCase struct {
	Name       string
	Method     string
	Path       string
	Body       any
	WantStatus int
	// WantCode, when set, is the expected error code
	WantCode string
	Check    func(t *testing.T, w *httptest.ResponseRecorder)
}

// RunRouteCases runs each case as a subtest against h.
func RunRouteCases(t *testing.T, h http.Handler, cases []RouteCase) {
	t.Helper()

	for _, rc := range cases {
		t.Run(rc.Name, func(t *testing.T) {
			method := rc.Method
			if method == "" {
				method = http.MethodGet
			}
			w := DoJSON(t, h, method, rc.Path, rc.Body)

			if rc.WantCode != "" {
				AssertErrorCode(t, w, rc.WantStatus, rc.WantCode)
			} else if rc.WantStatus != 0 {
				assert.Equal(t, rc.WantStatus, w.Code, w.Body.String())
			}
			if rc.Check != nil {
				rc.Check(t, w)
			}
		})
	}
}
