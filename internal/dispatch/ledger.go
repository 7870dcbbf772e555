package dispatch

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/core"
	"dukaan-agent/internal/metrics"
)

func parseAmount(req Request) (decimal.Decimal, bool) {
	raw := req.Entities["amount"]
	amount, err := decimal.NewFromString(raw)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return amount, true
}

func execRecordPayment(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	amount, valid := parseAmount(req)
	if !valid {
		return fail(apperr.ValidationFailed)
	}
	mode := core.PaymentMethod(req.Entities["mode"])
	if mode == "" {
		mode = core.PaymentCash
	}

	_, err := d.Store.RecordPayment(ctx, customer.ID, amount, mode)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to record payment")
		metrics.InvoiceOperationsTotal.WithLabelValues("payment", "error").Inc()
		return fail(apperr.InternalError)
	}
	metrics.InvoiceOperationsTotal.WithLabelValues("payment", "success").Inc()

	remaining, err := d.Store.GetBalanceFast(ctx, customer.ID)
	if err != nil {
		return fail(apperr.InternalError)
	}

	return ok(map[string]any{"customer": customer.Name, "paid": amount.StringFixed(2), "remaining": remaining})
}

func execAddCredit(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	amount, valid := parseAmount(req)
	if !valid {
		return fail(apperr.ValidationFailed)
	}

	if err := d.Store.AddCredit(ctx, customer.ID, amount, "manual credit"); err != nil {
		d.Log.Error().Err(err).Msg("failed to add credit")
		return fail(apperr.InternalError)
	}

	total, err := d.Store.GetBalanceFast(ctx, customer.ID)
	if err != nil {
		return fail(apperr.InternalError)
	}

	return ok(map[string]any{"customer": customer.Name, "added": amount.StringFixed(2), "total": total})
}

func execCheckStock(ctx context.Context, d *Dispatcher, req Request) Result {
	productName := strings.TrimSpace(req.Entities["product"])
	if productName == "" {
		return fail(apperr.ValidationFailed)
	}
	product, err := d.Store.FindProduct(ctx, req.ShopID, productName)
	if err != nil {
		if err == core.ErrProductNotFound {
			return fail(apperr.ProductNotFound)
		}
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"product": product.Name, "stock": product.Stock})
}

func execDailySummary(ctx context.Context, d *Dispatcher, req Request) Result {
	now := time.Now()
	summary, err := d.Store.GetDailySummary(ctx, req.ShopID, now)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to compute daily summary")
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"summary": summary})
}
