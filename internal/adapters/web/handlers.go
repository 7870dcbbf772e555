package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"dukaan-agent/internal/core"
	"dukaan-agent/internal/metrics"
	"dukaan-agent/internal/session"
)

// Handler holds the core.Store it queries and writes to, the shop this
// process serves, and the voice session controller that backs the WebSocket
// route. Grounded on the teacher's Handler (chi router + struct of
// collaborators), generalized from an ApplicationService facade to direct
// core.Store calls. Most routes are lookups and reports; the POST routes create
// customers, record payments, add credit, and cancel invoices and reminders
// directly through core.Store, without the dispatcher.
type Handler struct {
	store  *core.Store
	ctrl   *session.Controller
	shopID string
	router chi.Router
}

// NewHandler wires the chi router: REST endpoints for the dashboards/tools
// described in the HTTP/JSON surface, the WebSocket voice stream, and the
// Prometheus /metrics endpoint.
func NewHandler(store *core.Store, ctrl *session.Controller, shopID, allowedOrigins string) http.Handler {
	h := &Handler{store: store, ctrl: ctrl, shopID: shopID}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/health", h.health)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.NewRegistry(), promhttp.HandlerOpts{}))
	r.Get("/ws/voice", h.voiceWebSocket)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/customers/search", h.searchCustomers)
		r.Get("/customers/{id}", h.getCustomer)
		r.Post("/customers", h.createCustomer)

		r.Get("/products", h.listProducts)
		r.Get("/products/low-stock", h.listLowStock)

		r.Get("/invoices", h.listInvoices)
		r.Post("/invoices/{id}/cancel", h.cancelInvoice)

		r.Post("/ledger/payment", h.recordPayment)
		r.Post("/ledger/credit", h.addCredit)
		r.Get("/ledger/{customerId}", h.listLedger)

		r.Get("/reminders", h.listReminders)
		r.Post("/reminders/{id}/cancel", h.cancelReminder)

		r.Get("/summary/daily", h.dailySummary)
	})

	h.router = r
	return r
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) { h.router.ServeHTTP(w, r) }

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok", "shop_id": h.shopID})
}

func (h *Handler) searchCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	matches, err := h.store.SearchCustomer(r.Context(), h.shopID, q)
	if err != nil {
		writeError(w, r, "search failed: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, matches)
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		writeError(w, r, "customer not found", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, customer)
}

type createCustomerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Nickname string `json:"nickname"`
	Landmark string `json:"landmark"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	customer, err := h.store.CreateCustomer(r.Context(), h.shopID, req.Name, req.Phone, req.Nickname, req.Landmark)
	if err != nil {
		writeError(w, r, "failed to create customer: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, customer)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context(), h.shopID)
	if err != nil {
		writeError(w, r, "failed to list products: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, products)
}

func (h *Handler) listLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context(), h.shopID)
	if err != nil {
		writeError(w, r, "failed to list products: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	const lowStockThreshold = 5
	low := make([]core.Product, 0)
	for _, p := range products {
		if !p.IsAutoCreated && p.Stock <= lowStockThreshold {
			low = append(low, p)
		}
	}
	writeJSON(w, low)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	n := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}
	invoices, err := h.store.GetRecentInvoices(r.Context(), h.shopID, n)
	if err != nil {
		writeError(w, r, "failed to list invoices: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, invoices)
}

func (h *Handler) cancelInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.store.CancelInvoice(r.Context(), id); err != nil {
		writeError(w, r, "failed to cancel invoice: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "cancelled"})
}

type recordPaymentRequest struct {
	CustomerID int    `json:"customerId"`
	Amount     string `json:"amount"`
	Method     string `json:"method"`
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, r, "invalid amount", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	payment, err := h.store.RecordPayment(r.Context(), req.CustomerID, amount, core.PaymentMethod(req.Method))
	if err != nil {
		writeError(w, r, "failed to record payment: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, payment)
}

type addCreditRequest struct {
	CustomerID  int    `json:"customerId"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *Handler) addCredit(w http.ResponseWriter, r *http.Request) {
	var req addCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, r, "invalid amount", "BAD_REQUEST", http.StatusBadRequest)
		return
	}
	if err := h.store.AddCredit(r.Context(), req.CustomerID, amount, req.Description); err != nil {
		writeError(w, r, "failed to add credit: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "ok"})
}

func (h *Handler) listLedger(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "customerId")
	if !ok {
		return
	}
	entries, err := h.store.ListLedgerEntries(r.Context(), id, 100)
	if err != nil {
		writeError(w, r, "failed to list ledger entries: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, entries)
}

func (h *Handler) listReminders(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "customerId")
	if !ok {
		id = 0
	}
	reminders, err := h.store.ListReminders(r.Context(), id)
	if err != nil {
		writeError(w, r, "failed to list reminders: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, reminders)
}

func (h *Handler) cancelReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(w, r, "id")
	if !ok {
		return
	}
	if _, err := h.store.CancelReminder(r.Context(), id); err != nil {
		writeError(w, r, "failed to cancel reminder: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"status": "cancelled"})
}

func (h *Handler) dailySummary(w http.ResponseWriter, r *http.Request) {
	at := time.Now()
	if v := r.URL.Query().Get("date"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			at = parsed
		}
	}
	summary, err := h.store.GetDailySummary(r.Context(), h.shopID, at)
	if err != nil {
		writeError(w, r, "failed to compute daily summary: "+err.Error(), "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}
	writeJSON(w, summary)
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, "invalid "+name, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
