package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

// PayableHandler handles payable API endpoints
type PayableHandler struct {
	BaseHandler
	payables     *financeapp.PayableService
	installments *financeapp.InstallmentService
}

// NewPayableHandler creates a new PayableHandler
func NewPayableHandler(payables *financeapp.PayableService, installments *financeapp.InstallmentService) *PayableHandler {
	return &PayableHandler{
		payables:     payables,
		installments: installments,
	}
}

// List godoc
// @Summary      List payables
// @Description  List payables ordered by due date, optionally restricted to one due month
// @Tags         payables
// @Produce      json
// @Param        year  query int false "Due year (with month)"
// @Param        month query int false "Due month (with year)"
// @Success      200 {object} dto.Response{data=[]financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables [get]
func (h *PayableHandler) List(c *gin.Context) {
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

	items, err := h.payables.List(c.Request.Context(), month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Summary godoc
// @Summary      Payables summary
// @Description  Rows, totals and bucket counts for a quick filter and search term
// @Tags         payables
// @Produce      json
// @Param        year   query int    false "Due year (with month)"
// @Param        month  query int    false "Due month (with year)"
// @Param        filter query string false "Quick filter" Enums(all, overdue, dueToday, open, next7, settled)
// @Param        search query string false "Search term"
// @Success      200 {object} dto.Response{data=financeapp.SummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/summary [get]
func (h *PayableHandler) Summary(c *gin.Context) {
	var q dto.SummaryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	query, err := q.ToService()
	if err != nil {
		h.HandleError(c, err)
		return
	}

	summary, err := h.payables.Summary(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get godoc
// @Summary      Get payable by ID
// @Tags         payables
// @Produce      json
// @Param        id path string true "Payable ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id} [get]
func (h *PayableHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	p, err := h.payables.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Create godoc
// @Summary      Create payable
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        request body dto.PayableRequest true "Payable"
// @Success      201 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables [post]
func (h *PayableHandler) Create(c *gin.Context) {
	var req dto.PayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	p, err := h.payables.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// CreateBatch godoc
// @Summary      Create payables in batch
// @Description  Items are created independently; failures are reported by index
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        request body []dto.PayableRequest true "Payables"
// @Success      201 {object} dto.Response{data=dto.BatchCreateResponse}
// @Success      207 {object} dto.Response{data=dto.BatchCreateResponse}
// @Failure      400 {object} dto.Response{data=dto.BatchCreateResponse}
// @Router       /payables/batch [post]
func (h *PayableHandler) CreateBatch(c *gin.Context) {
	var reqs []dto.PayableRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.checkBatchSize(c, len(reqs)) {
		return
	}

	inputs := make([]finance.EntryInput, len(reqs))
	for i, req := range reqs {
		inputs[i] = req.ToInput()
	}
	h.writeBatch(c, h.payables.CreateBatch(c.Request.Context(), inputs))
}

// Update godoc
// @Summary      Update payable
// @Description  Replaces every attribute. A positive version must match the stored one.
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Payable ID" format(uuid)
// @Param        request body dto.PayableRequest true "Payable"
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id} [put]
func (h *PayableHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.PayableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.checkRouteID(c, id, req.ID) {
		return
	}

	p, err := h.payables.Update(c.Request.Context(), id, req.Version, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// RegisterPayment godoc
// @Summary      Register a payment
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Payable ID" format(uuid)
// @Param        request body dto.SettlementRequest true "Payment"
// @Success      200 {object} dto.Response{data=financeapp.PayableResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/{id}/payments [post]
func (h *PayableHandler) RegisterPayment(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	p, err := h.payables.RegisterPayment(c.Request.Context(), id, req.ToService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// PreviewInstallments godoc
// @Summary      Preview installments
// @Description  Splits an invoice into installments and projects their due dates. Nothing is stored.
// @Tags         payables
// @Accept       json
// @Produce      json
// @Param        request body dto.InstallmentPreviewRequest true "Invoice"
// @Success      200 {object} dto.Response{data=financeapp.InstallmentPreviewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /payables/installments/preview [post]
func (h *PayableHandler) PreviewInstallments(c *gin.Context) {
	previewInstallments(&h.BaseHandler, h.installments, c)
}
