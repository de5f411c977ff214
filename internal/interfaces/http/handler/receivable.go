package handler

import (
	"github.com/gin-gonic/gin"
	financeapp "github.com/joaodebarro/backend/internal/application/finance"
	"github.com/joaodebarro/backend/internal/domain/finance"
	"github.com/joaodebarro/backend/internal/interfaces/http/dto"
)

// ReceivableHandler handles receivable API endpoints
type ReceivableHandler struct {
	BaseHandler
	receivables  *financeapp.ReceivableService
	installments *financeapp.InstallmentService
}

// NewReceivableHandler creates a new ReceivableHandler
func NewReceivableHandler(receivables *financeapp.ReceivableService, installments *financeapp.InstallmentService) *ReceivableHandler {
	return &ReceivableHandler{
		receivables:  receivables,
		installments: installments,
	}
}

// List godoc
// @Summary      List receivables
// @Description  List receivables ordered by due date, optionally restricted to one due month
// @Tags         receivables
// @Produce      json
// @Param        year  query int false "Due year (with month)"
// @Param        month query int false "Due month (with year)"
// @Success      200 {object} dto.Response{data=[]financeapp.ReceivableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables [get]
func (h *ReceivableHandler) List(c *gin.Context) {
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

	items, err := h.receivables.List(c.Request.Context(), month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Summary godoc
// @Summary      Receivables summary
// @Description  Rows, totals and bucket counts for a quick filter and search term
// @Tags         receivables
// @Produce      json
// @Param        year   query int    false "Due year (with month)"
// @Param        month  query int    false "Due month (with year)"
// @Param        filter query string false "Quick filter" Enums(all, overdue, dueToday, open, next7, settled)
// @Param        search query string false "Search term"
// @Success      200 {object} dto.Response{data=financeapp.SummaryResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables/summary [get]
func (h *ReceivableHandler) Summary(c *gin.Context) {
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

	summary, err := h.receivables.Summary(c.Request.Context(), query)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Get godoc
// @Summary      Get receivable by ID
// @Tags         receivables
// @Produce      json
// @Param        id path string true "Receivable ID" format(uuid)
// @Success      200 {object} dto.Response{data=financeapp.ReceivableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables/{id} [get]
func (h *ReceivableHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	r, err := h.receivables.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// Create godoc
// @Summary      Create receivable
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body dto.ReceivableRequest true "Receivable"
// @Success      201 {object} dto.Response{data=financeapp.ReceivableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables [post]
func (h *ReceivableHandler) Create(c *gin.Context) {
	var req dto.ReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	r, err := h.receivables.Create(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// CreateBatch godoc
// @Summary      Create receivables in batch
// @Description  Items are created independently; failures are reported by index
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body []dto.ReceivableRequest true "Receivables"
// @Success      201 {object} dto.Response{data=dto.BatchCreateResponse}
// @Success      207 {object} dto.Response{data=dto.BatchCreateResponse}
// @Failure      400 {object} dto.Response{data=dto.BatchCreateResponse}
// @Router       /receivables/batch [post]
func (h *ReceivableHandler) CreateBatch(c *gin.Context) {
	var reqs []dto.ReceivableRequest
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
	h.writeBatch(c, h.receivables.CreateBatch(c.Request.Context(), inputs))
}

// Update godoc
// @Summary      Update receivable
// @Description  Replaces every attribute. A positive version must match the stored one.
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Receivable ID" format(uuid)
// @Param        request body dto.ReceivableRequest true "Receivable"
// @Success      200 {object} dto.Response{data=financeapp.ReceivableResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables/{id} [put]
func (h *ReceivableHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.ReceivableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if !h.checkRouteID(c, id, req.ID) {
		return
	}

	r, err := h.receivables.Update(c.Request.Context(), id, req.Version, req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// RegisterReceipt godoc
// @Summary      Register a receipt
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        id      path string                true "Receivable ID" format(uuid)
// @Param        request body dto.SettlementRequest true "Receipt"
// @Success      200 {object} dto.Response{data=financeapp.ReceivableResponse}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables/{id}/receipts [post]
func (h *ReceivableHandler) RegisterReceipt(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	r, err := h.receivables.RegisterReceipt(c.Request.Context(), id, req.ToService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// PreviewInstallments godoc
// @Summary      Preview installments
// @Description  Splits an invoice into installments and projects their due dates. Nothing is stored.
// @Tags         receivables
// @Accept       json
// @Produce      json
// @Param        request body dto.InstallmentPreviewRequest true "Invoice"
// @Success      200 {object} dto.Response{data=financeapp.InstallmentPreviewResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /receivables/installments/preview [post]
func (h *ReceivableHandler) PreviewInstallments(c *gin.Context) {
	previewInstallments(&h.BaseHandler, h.installments, c)
}

func previewInstallments(h *BaseHandler, svc *financeapp.InstallmentService, c *gin.Context) {
	var req dto.InstallmentPreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	preview, err := svc.Preview(c.Request.Context(), req.ToService())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, preview)
}
