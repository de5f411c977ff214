package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joaodebarro/backend/internal/interfaces/http/handler"
)

// Handlers bundles the HTTP handlers mounted by Mount
type Handlers struct {
	Receivables *handler.ReceivableHandler
	Payables    *handler.PayableHandler
	Dashboard   *handler.DashboardHandler
	Preferences *handler.PreferenceHandler
	System      *handler.SystemHandler
}

// entryEndpoints are the operations receivables and payables share; only the
// settlement endpoint differs between them.
type entryEndpoints interface {
	List(c *gin.Context)
	Summary(c *gin.Context)
	Create(c *gin.Context)
	CreateBatch(c *gin.Context)
	PreviewInstallments(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
}

// entryRoutes mounts one side of the ledger. Static segments go first so
// "/summary" is never read as an id.
func entryRoutes(plural, singular string, h entryEndpoints, settlePath, settleDesc string, settle gin.HandlerFunc) *RouteGroup {
	return NewRouteGroup("/"+plural).
		Handle(http.MethodGet, "", "List "+plural+" of a month", h.List).
		Handle(http.MethodGet, "/summary", "Quick filter counts and rows of a month", h.Summary).
		Handle(http.MethodPost, "", "Create "+singular, h.Create).
		Handle(http.MethodPost, "/batch", "Create "+plural+" in batch", h.CreateBatch).
		Handle(http.MethodPost, "/installments/preview", "Preview an installment schedule", h.PreviewInstallments).
		Handle(http.MethodGet, "/:id", "Get "+singular, h.Get).
		Handle(http.MethodPut, "/:id", "Update "+singular, h.Update).
		Handle(http.MethodPost, "/:id/"+settlePath, settleDesc, settle)
}

// Mount registers the bookkeeping API under /api/<version> and the health
// probe at the engine root.
func Mount(engine *gin.Engine, h Handlers, opts ...RouterOption) *Router {
	r := NewRouter(engine, opts...)

	r.Register(
		entryRoutes("receivables", "receivable", h.Receivables,
			"receipts", "Register a receipt", h.Receivables.RegisterReceipt),
		entryRoutes("payables", "payable", h.Payables,
			"payments", "Register a payment", h.Payables.RegisterPayment),
		NewRouteGroup("/dashboard").
			Handle(http.MethodGet, "", "Receivables against payables for a month", h.Dashboard.Get),
		NewRouteGroup("/preferences").
			Handle(http.MethodGet, "/:scope", "Get screen preferences", h.Preferences.Get).
			Handle(http.MethodPut, "/:scope", "Save screen preferences", h.Preferences.Put).
			Handle(http.MethodDelete, "/:scope", "Reset screen preferences", h.Preferences.Delete),
		NewRouteGroup("").
			Handle(http.MethodGet, "/ping", "Ping", h.System.Ping).
			Handle(http.MethodGet, "/system/info", "Service information", h.System.GetSystemInfo),
	)
	r.Setup()

	engine.GET("/health", h.System.Health)
	return r
}
