package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
	"github.com/joaodebarro/backend/internal/interfaces/http/middleware"
)

// MaxBatchSize bounds the items accepted by one batch create
const MaxBatchSize = 500

// checkBatchSize answers 400 for empty or oversized batches
func (h *BaseHandler) checkBatchSize(c *gin.Context, n int) bool {
	switch {
	case n == 0:
		h.ErrorWithCode(c, dto.ErrCodeValidation, "Batch must contain at least one item")
		return false
	case n > MaxBatchSize:
		h.ErrorWithCode(c, dto.ErrCodeValidation, fmt.Sprintf("Batch must contain at most %d items", MaxBatchSize))
		return false
	}
	return true
}

// writeBatch answers 201 when every item was created and 207 when some failed.
// A batch where nothing was created is a 503 when the store was unreachable
// for any item and a 400 otherwise. The body always lists both outcomes.
func (h *BaseHandler) writeBatch(c *gin.Context, result finance.BatchResult) {
	body := dto.NewBatchCreateResponse(result)
	switch {
	case result.AllFailed() && result.StoreUnavailable():
		h.writeBatchError(c, body, dto.ErrCodeStoreUnavailable, "Store unavailable, no item of the batch was created")
	case result.AllFailed():
		h.writeBatchError(c, body, dto.ErrCodeValidation, "No item of the batch was created")
	case result.HasFailures():
		c.JSON(http.StatusMultiStatus, dto.NewSuccessResponse(body))
	default:
		c.JSON(http.StatusCreated, dto.NewSuccessResponse(body))
	}
}

func (h *BaseHandler) writeBatchError(c *gin.Context, body dto.BatchCreateResponse, code, message string) {
	middleware.SetErrorCode(c, code)
	c.JSON(dto.GetHTTPStatus(code), dto.Response{
		Success: false,
		Data:    body,
		Error: &dto.ErrorInfo{
			Code:      code,
			Message:   message,
			RequestID: getRequestID(c),
		},
	})
}

// checkRouteID rejects an update whose body names another entry
func (h *BaseHandler) checkRouteID(c *gin.Context, routeID uuid.UUID, bodyID string) bool {
	if bodyID == "" {
		return true
	}
	if id, err := uuid.Parse(bodyID); err != nil || id != routeID {
		h.BadRequest(c, "Body id does not match the route id")
		return false
	}
	return true
}
