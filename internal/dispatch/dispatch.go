// Package dispatch implements the intent dispatcher (component G): one
// executor per recognised intent, each documented by its contract rather than
// its implementation, grounded on the teacher's AgentService split between
// read-tools and write-tools (internal/ai/agent.go, internal/ai/tools.go) —
// generalized from an LLM tool-call loop to a fixed dispatch table, since this
// domain's intent set is closed and does not need agentic tool discovery.
package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/conv"
	"dukaan-agent/internal/core"
	"dukaan-agent/internal/external"
	"dukaan-agent/internal/metrics"
	"dukaan-agent/internal/resolver"
)

// Result is the sum-typed outcome of a dispatched intent: the dispatcher never
// throws across its boundary, it always returns one of these.
type Result struct {
	Success bool
	Data    map[string]any
	Message string
	Error   apperr.Code
}

func ok(data map[string]any) Result {
	if data == nil {
		data = map[string]any{}
	}
	return Result{Success: true, Data: data}
}

func fail(code apperr.Code) Result {
	return Result{Success: false, Error: code, Message: apperr.Message(code)}
}

func failMsg(code apperr.Code, message string) Result {
	return Result{Success: false, Error: code, Message: message}
}

// ItemEntity is one spoken line item, as extracted by the classifier, before
// product resolution.
type ItemEntity struct {
	Product   string
	Quantity  string // decimal string, e.g. "2"
	UnitPrice string // optional override, decimal string
}

// Request carries everything one dispatch call needs: the intent name,
// extracted entities, and the session/shop it runs against. Scalar entities
// (customer, amount, email, ...) live in Entities; the one list-valued entity
// (invoice line items) gets its own field since dispatch needs real structure,
// not a flattened string.
type Request struct {
	SessionID string
	ShopID    string
	Intent    string
	Entities  map[string]string
	Items     []ItemEntity
}

// Dispatcher wires the ledger store, conversation store, resolver, and every
// external collaborator behind one dispatch table. No field is a singleton —
// all are passed in at construction per §9's dependency-injected-handles note.
type Dispatcher struct {
	Store     *core.Store
	ConvStore *conv.Store
	Resolver  *resolver.Resolver

	Email    external.Email
	WhatsApp external.WhatsApp
	Jobs     external.JobQueue
	Objects  external.ObjectStore

	AdminEmail string
	Log        zerolog.Logger
}

// Dispatch looks up the intent's executor and runs it against req. Every path
// through an executor returns a Result; none of them panic or return a raw
// Go error across this boundary.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	start := time.Now()
	logEvent := d.Log.Info().Str("intent", req.Intent).Str("session_id", req.SessionID).Str("shop_id", req.ShopID)
	for k, v := range req.Entities {
		logEvent = logEvent.Str("entity_"+k, v)
	}
	logEvent.Msg("dispatching intent")

	exec, ok := executors[req.Intent]
	if !ok {
		exec = func(ctx context.Context, d *Dispatcher, req Request) Result { return fail(apperr.UnknownIntent) }
	}

	result := exec(ctx, d, req)

	status := "success"
	if !result.Success {
		status = "error"
	}
	metrics.BusinessOperationsTotal.WithLabelValues(req.Intent, status).Inc()
	d.Log.Info().Str("intent", req.Intent).Str("status", status).Dur("elapsed", time.Since(start)).Msg("intent dispatched")

	return result
}

type executor func(ctx context.Context, d *Dispatcher, req Request) Result

var executors = map[string]executor{
	"TOTAL_PENDING_AMOUNT":     execTotalPendingAmount,
	"LIST_CUSTOMER_BALANCES":   execListCustomerBalances,
	"CHECK_BALANCE":            execCheckBalance,
	"CREATE_INVOICE":           execCreateInvoice,
	"CONFIRM_INVOICE":          execConfirmInvoice,
	"SHOW_PENDING_INVOICE":     execShowPendingInvoice,
	"TOGGLE_GST":               execToggleGST,
	"PROVIDE_EMAIL":            execProvideEmail,
	"SEND_INVOICE":             execSendInvoice,
	"CREATE_REMINDER":          execCreateReminder,
	"RECORD_PAYMENT":           execRecordPayment,
	"ADD_CREDIT":               execAddCredit,
	"CHECK_STOCK":              execCheckStock,
	"CANCEL_INVOICE":           execCancelInvoice,
	"CANCEL_REMINDER":          execCancelReminder,
	"LIST_REMINDERS":           execListReminders,
	"CREATE_CUSTOMER":          execCreateCustomer,
	"MODIFY_REMINDER":          execModifyReminder,
	"DAILY_SUMMARY":            execDailySummary,
	"UPDATE_CUSTOMER":          execUpdateCustomer,
	"UPDATE_CUSTOMER_PHONE":    execUpdateCustomer,
	"GET_CUSTOMER_INFO":        execGetCustomerInfo,
	"DELETE_CUSTOMER_DATA":     execDeleteCustomerData,
	"SWITCH_LANGUAGE":          execSwitchLanguage,
	"START_RECORDING":          execStartRecording,
	"STOP_RECORDING":           execStopRecording,
}

// resolveEntities lifts the customer/name/customerRef fields off req.Entities
// into a resolver.Entities for a Resolve call.
func resolveEntities(req Request) resolver.Entities {
	return resolver.Entities{
		Customer:    req.Entities["customer"],
		Name:        req.Entities["name"],
		CustomerRef: req.Entities["customerRef"],
	}
}

// resolveCustomer runs the resolver and translates its sum-typed result into a
// dispatch Result when resolution didn't produce exactly one customer; the
// caller proceeds only when ok is true.
func resolveCustomer(ctx context.Context, d *Dispatcher, req Request) (*core.Customer, Result, bool) {
	res, err := d.Resolver.Resolve(ctx, req.ShopID, req.SessionID, resolveEntities(req))
	if err != nil {
		d.Log.Error().Err(err).Msg("resolver failure")
		return nil, fail(apperr.InternalError), false
	}
	switch res.Kind {
	case resolver.KindResolved:
		return res.Customer, Result{}, true
	case resolver.KindMultiple:
		candidates := make([]map[string]any, len(res.Candidates))
		for i, c := range res.Candidates {
			candidates[i] = map[string]any{
				"id": c.Customer.ID, "name": c.Customer.Name, "matchScore": c.MatchScore,
			}
		}
		return nil, Result{
			Success: false, Error: apperr.MultipleCustomers, Message: apperr.Message(apperr.MultipleCustomers),
			Data: map[string]any{"customers": candidates},
		}, false
	default:
		return nil, fail(apperr.CustomerNotFound), false
	}
}
