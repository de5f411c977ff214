package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/domain/shared"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
}

func (api *testAPI) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			panic(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func validReceivableBody() map[string]any {
	return map[string]any{
		"customerName":       "Construtora Horizonte",
		"serviceDescription": "Electrical maintenance",
		"serviceDate":        "2026-03-01",
		"dueDate":            "2026-03-20",
		"paymentMethod":      "pix",
		"grossAmount":        1000,
		"issAmount":          50,
	}
}

func TestReceivableHandler_List(t *testing.T) {
	t.Run("month window", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("List", mock.Anything, mock.MatchedBy(func(f finance.EntryFilter) bool {
			return f.Month != nil && f.Month.String() == "2026-03"
		})).Return([]finance.Receivable{*newReceivable("1000")}, nil)

		w := api.do(http.MethodGet, "/api/v1/receivables?year=2026&month=3", nil)

		require.Equal(t, http.StatusOK, w.Code)
		env := decode[[]financeapp.ReceivableResponse](t, w)
		require.Len(t, env.Data, 1)
		assert.Equal(t, "Construtora Horizonte", env.Data[0].CustomerName)
		api.receivables.AssertExpectations(t)
	})

	t.Run("year without month", func(t *testing.T) {
		api := newTestAPI()
		w := api.do(http.MethodGet, "/api/v1/receivables?year=2026", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, info.Code)
		require.Len(t, info.Details, 1)
		assert.Equal(t, "month", info.Details[0].Field)
		api.receivables.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("month out of range", func(t *testing.T) {
		api := newTestAPI()
		w := api.do(http.MethodGet, "/api/v1/receivables?year=2026&month=13", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, info.Code)
		assert.Equal(t, "month", info.Details[0].Field)
	})

	t.Run("store unavailable", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("List", mock.Anything, mock.Anything).
			Return(nil, fmt.Errorf("list receivables: %w", shared.ErrStoreUnavailable))

		w := api.do(http.MethodGet, "/api/v1/receivables", nil)

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeStoreUnavailable, decodeError(t, w).Code)
	})
}

func TestReceivableHandler_Summary(t *testing.T) {
	api := newTestAPI()
	overdue := newReceivable("300")
	overdue.DueDate = shared.Date(2026, 3, 2)
	api.receivables.On("List", mock.Anything, mock.Anything).
		Return([]finance.Receivable{*newReceivable("1000"), *overdue}, nil)

	w := api.do(http.MethodGet, "/api/v1/receivables/summary?filter=overdue", nil)

	require.Equal(t, http.StatusOK, w.Code)
	env := decode[financeapp.SummaryResponse](t, w)
	require.Len(t, env.Data.Rows, 1)
	assert.Equal(t, overdue.ID.String(), env.Data.Rows[0].ID)
	assert.Equal(t, "2026-03-10", env.Data.Today)

	w = api.do(http.MethodGet, "/api/v1/receivables/summary?filter=someday", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "filter", decodeError(t, w).Details[0].Field)
}

func TestReceivableHandler_Get(t *testing.T) {
	api := newTestAPI()
	r := newReceivable("1000")
	missing := uuid.New()
	api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)
	api.receivables.On("FindByID", mock.Anything, missing).Return(nil, shared.ErrNotFound)

	w := api.do(http.MethodGet, "/api/v1/receivables/"+r.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	env := decode[financeapp.ReceivableResponse](t, w)
	assert.Equal(t, r.ID, env.Data.ID)
	assert.True(t, env.Data.OutstandingAmount.Equal(dec("1000")))

	w = api.do(http.MethodGet, "/api/v1/receivables/"+missing.String(), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)

	w = api.do(http.MethodGet, "/api/v1/receivables/42", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeBadRequest, decodeError(t, w).Code)
}

func TestReceivableHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("Save", mock.Anything, mock.AnythingOfType("*finance.Receivable")).Return(nil)

		w := api.do(http.MethodPost, "/api/v1/receivables", validReceivableBody())

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		env := decode[financeapp.ReceivableResponse](t, w)
		assert.NotEqual(t, uuid.Nil, env.Data.ID)
		assert.True(t, env.Data.NetAmount.Equal(dec("950")))
		assert.Equal(t, "BRL", env.Data.Currency)
		api.receivables.AssertExpectations(t)
	})

	t.Run("field failures list every field", func(t *testing.T) {
		api := newTestAPI()
		body := validReceivableBody()
		delete(body, "dueDate")
		body["amountReceived"] = 100

		w := api.do(http.MethodPost, "/api/v1/receivables", body)

		require.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, dto.ErrCodeValidation, info.Code)
		keys := map[string]string{}
		for _, d := range info.Details {
			keys[d.Field] = d.Key
		}
		assert.Equal(t, finance.KeyRequired, keys["dueDate"])
		assert.Equal(t, finance.KeyPaymentDateRequired, keys["paymentDate"])
		api.receivables.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("malformed json", func(t *testing.T) {
		api := newTestAPI()
		w := api.do(http.MethodPost, "/api/v1/receivables", `{"customerName":`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeError(t, w).Code)
	})
}

func TestReceivableHandler_CreateBatch(t *testing.T) {
	invalid := validReceivableBody()
	invalid["paymentMethod"] = "cheque"

	t.Run("all created", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("SaveBatch", mock.Anything, mock.Anything).Return()

		w := api.do(http.MethodPost, "/api/v1/receivables/batch", []any{validReceivableBody(), validReceivableBody()})

		require.Equal(t, http.StatusCreated, w.Code)
		env := decode[dto.BatchCreateResponse](t, w)
		assert.Len(t, env.Data.Created, 2)
		assert.Empty(t, env.Data.Failures)
	})

	t.Run("partial failure", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("SaveBatch", mock.Anything, mock.Anything).Return()

		w := api.do(http.MethodPost, "/api/v1/receivables/batch", []any{validReceivableBody(), invalid})

		require.Equal(t, http.StatusMultiStatus, w.Code)
		env := decode[dto.BatchCreateResponse](t, w)
		assert.Len(t, env.Data.Created, 1)
		require.Len(t, env.Data.Failures, 1)
		assert.Equal(t, 1, env.Data.Failures[0].Index)
		assert.Equal(t, finance.CodeValidationFailed, env.Data.Failures[0].Code)
	})

	t.Run("nothing created", func(t *testing.T) {
		api := newTestAPI()

		w := api.do(http.MethodPost, "/api/v1/receivables/batch", []any{invalid})

		require.Equal(t, http.StatusBadRequest, w.Code)
		env := decode[dto.BatchCreateResponse](t, w)
		assert.False(t, env.Success)
		assert.Empty(t, env.Data.Created)
		assert.Len(t, env.Data.Failures, 1)
		api.receivables.AssertNotCalled(t, "SaveBatch", mock.Anything, mock.Anything)
	})

	t.Run("store down for every item", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("SaveBatch", mock.Anything, mock.Anything).Return(storeDown(2))

		w := api.do(http.MethodPost, "/api/v1/receivables/batch", []any{validReceivableBody(), validReceivableBody()})

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decode[dto.BatchCreateResponse](t, w)
		require.NotNil(t, env.Error)
		assert.Equal(t, dto.ErrCodeStoreUnavailable, env.Error.Code)
		assert.Empty(t, env.Data.Created)
		require.Len(t, env.Data.Failures, 2)
		assert.Equal(t, shared.CodeStoreUnavailable, env.Data.Failures[1].Code)
	})

	t.Run("store down with invalid items stays 503", func(t *testing.T) {
		api := newTestAPI()
		api.receivables.On("SaveBatch", mock.Anything, mock.Anything).Return(storeDown(1))

		w := api.do(http.MethodPost, "/api/v1/receivables/batch", []any{invalid, validReceivableBody()})

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		env := decode[dto.BatchCreateResponse](t, w)
		require.Len(t, env.Data.Failures, 2)
	})

	t.Run("empty batch", func(t *testing.T) {
		api := newTestAPI()
		w := api.do(http.MethodPost, "/api/v1/receivables/batch", []any{})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeValidation, decodeError(t, w).Code)
	})
}

func TestReceivableHandler_Update(t *testing.T) {
	t.Run("body id must match the route", func(t *testing.T) {
		api := newTestAPI()
		body := validReceivableBody()
		body["id"] = uuid.NewString()

		w := api.do(http.MethodPut, "/api/v1/receivables/"+uuid.NewString(), body)

		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeBadRequest, decodeError(t, w).Code)
		api.receivables.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	})

	t.Run("stale version", func(t *testing.T) {
		api := newTestAPI()
		r := newReceivable("1000")
		api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)
		body := validReceivableBody()
		body["id"] = r.ID.String()
		body["version"] = r.Version + 5

		w := api.do(http.MethodPut, "/api/v1/receivables/"+r.ID.String(), body)

		require.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, dto.ErrCodeConcurrencyConflict, decodeError(t, w).Code)
	})

	t.Run("conflict detected by the store", func(t *testing.T) {
		api := newTestAPI()
		r := newReceivable("1000")
		api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)
		api.receivables.On("Update", mock.Anything, r).Return(shared.ErrConcurrencyConflict)

		w := api.do(http.MethodPut, "/api/v1/receivables/"+r.ID.String(), validReceivableBody())

		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("replaces attributes", func(t *testing.T) {
		api := newTestAPI()
		r := newReceivable("1000")
		api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)
		api.receivables.On("Update", mock.Anything, r).Return(nil)
		body := validReceivableBody()
		body["customerName"] = "Horizonte Engenharia"

		w := api.do(http.MethodPut, "/api/v1/receivables/"+r.ID.String(), body)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[financeapp.ReceivableResponse](t, w)
		assert.Equal(t, "Horizonte Engenharia", env.Data.CustomerName)
	})
}

func TestReceivableHandler_RegisterReceipt(t *testing.T) {
	t.Run("partial receipt", func(t *testing.T) {
		api := newTestAPI()
		r := newReceivable("1000")
		api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)
		api.receivables.On("Update", mock.Anything, r).Return(nil)

		w := api.do(http.MethodPost, "/api/v1/receivables/"+r.ID.String()+"/receipts",
			map[string]any{"amount": 600, "date": "2026-03-09"})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		env := decode[financeapp.ReceivableResponse](t, w)
		assert.True(t, env.Data.OutstandingAmount.Equal(dec("400")))
		assert.Equal(t, "2026-03-09", env.Data.PaymentDate)
	})

	t.Run("more than outstanding", func(t *testing.T) {
		api := newTestAPI()
		r := newReceivable("1000")
		api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)

		w := api.do(http.MethodPost, "/api/v1/receivables/"+r.ID.String()+"/receipts", map[string]any{"amount": 1500})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeExceedsOutstanding, decodeError(t, w).Code)
		api.receivables.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount", func(t *testing.T) {
		api := newTestAPI()
		r := newReceivable("1000")
		api.receivables.On("FindByID", mock.Anything, r.ID).Return(r, nil)

		w := api.do(http.MethodPost, "/api/v1/receivables/"+r.ID.String()+"/receipts", map[string]any{"amount": 0})

		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, dto.ErrCodeNonPositiveAmount, decodeError(t, w).Code)
	})

	t.Run("malformed date", func(t *testing.T) {
		api := newTestAPI()
		w := api.do(http.MethodPost, "/api/v1/receivables/"+uuid.NewString()+"/receipts",
			map[string]any{"amount": 10, "date": "09/03/2026"})

		require.Equal(t, http.StatusBadRequest, w.Code)
		info := decodeError(t, w)
		assert.Equal(t, "date", info.Details[0].Field)
		assert.Equal(t, "date_only", info.Details[0].Key)
	})
}

func TestReceivableHandler_PreviewInstallments(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodPost, "/api/v1/receivables/installments/preview", map[string]any{
		"grossAmount": 1000,
		"issMode":     "manual",
		"issAmount":   50,
		"baseDate":    "2026-03-10",
		"count":       3,
		"rule":        "MonthlyFixedDay",
		"fixedDay":    31,
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	env := decode[financeapp.InstallmentPreviewResponse](t, w)
	require.Len(t, env.Data.Rows, 3)
	total := dec("0")
	for _, row := range env.Data.Rows {
		total = total.Add(row.GrossAmount)
	}
	assert.True(t, total.Equal(dec("1000")))
	assert.Equal(t, "2026-03-31", env.Data.Rows[0].DueDate)
	assert.Equal(t, "2026-04-30", env.Data.Rows[1].DueDate)

	w = api.do(http.MethodPost, "/api/v1/receivables/installments/preview", map[string]any{
		"grossAmount": 1000, "baseDate": "2026-03-10", "count": 3, "rule": "Weekly",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rule", decodeError(t, w).Details[0].Field)

	w = api.do(http.MethodPost, "/api/v1/receivables/installments/preview", map[string]any{
		"grossAmount": 1000, "baseDate": "2026-03-10", "count": 0, "rule": "FixedInterval",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidSchedule, decodeError(t, w).Code)
}
