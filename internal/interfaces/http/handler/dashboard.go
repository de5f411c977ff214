package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

// DashboardHandler serves the receivables/payables roll-up
type DashboardHandler struct {
	BaseHandler
	dashboard *financeapp.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *financeapp.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Get godoc
// @Summary      Dashboard
// @Description  Totals and bucket counts of receivables and payables, with the balance between them
// @Tags         dashboard
// @Produce      json
// @Param        year  query int false "Due year (with month)"
// @Param        month query int false "Due month (with year)"
// @Success      200 {object} dto.Response{data=financeapp.DashboardResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	var q dto.MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	month, err := q.MonthRef()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.dashboard.Get(c.Request.Context(), month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
