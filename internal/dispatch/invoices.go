package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/conv"
	"dukaan-agent/internal/core"
	"dukaan-agent/internal/gst"
	"dukaan-agent/internal/metrics"
)

func previewToDraft(customer core.Customer, preview *core.InvoicePreview, withGST bool, inputItems []string) conv.Draft {
	items := make([]conv.DraftItem, len(preview.Lines))
	var autoCreated []string
	for i, line := range preview.Lines {
		items[i] = conv.DraftItem{
			ProductName: line.Product.Name,
			Quantity:    line.Quantity.String(),
			UnitPrice:   line.UnitPrice.StringFixed(2),
			Total:       line.Total.StringFixed(2),
		}
		if line.AutoCreated {
			autoCreated = append(autoCreated, line.Product.Name)
		}
	}
	grandTotal := preview.Totals.GrandTotal
	if !withGST {
		grandTotal = preview.Totals.Subtotal
	}
	return conv.Draft{
		CustomerID: customer.ID, CustomerName: customer.Name, CustomerEmail: customer.Email,
		ResolvedItems: items, InputItems: inputItems,
		Subtotal: preview.Totals.Subtotal.StringFixed(2), GrandTotal: grandTotal.StringFixed(2),
		WithGST: withGST, AutoCreatedProducts: autoCreated,
	}
}

func supplyTypeFor(customer core.Customer) gst.SupplyType {
	if customer.GSTIN != "" && len(customer.GSTIN) >= 2 && customer.GSTIN[:2] != "27" {
		return gst.Interstate
	}
	return gst.Intrastate
}

func execCreateInvoice(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	if len(req.Items) == 0 {
		return fail(apperr.ValidationFailed)
	}

	withGST := true
	if v, ok := req.Entities["withGst"]; ok {
		withGST = v != "false" && v != "0"
	}

	lines, inputDesc, err := parseLineRequests(req.Items)
	if err != nil {
		return failMsg(apperr.ValidationFailed, err.Error())
	}

	preview, err := d.Store.PreviewInvoice(ctx, req.ShopID, customer.ID, lines, supplyTypeFor(*customer))
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to preview invoice")
		return fail(apperr.InternalError)
	}

	draft := previewToDraft(*customer, preview, withGST, inputDesc)
	draftID, err := d.ConvStore.AddDraft(ctx, req.ShopID, draft)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to store invoice draft")
		return fail(apperr.InternalError)
	}

	return ok(map[string]any{
		"draftId": draftID, "customer": customer.Name, "items": draft.ResolvedItems,
		"subtotal": draft.Subtotal, "grandTotal": draft.GrandTotal, "withGst": withGST,
		"autoCreatedProducts": draft.AutoCreatedProducts, "awaitingConfirm": true,
	})
}

func parseLineRequests(items []ItemEntity) ([]core.InvoiceLineRequest, []string, error) {
	lines := make([]core.InvoiceLineRequest, len(items))
	desc := make([]string, len(items))
	for i, item := range items {
		qty, err := decimal.NewFromString(item.Quantity)
		if err != nil || qty.LessThanOrEqual(decimal.Zero) {
			return nil, nil, fmt.Errorf("invalid quantity for %s", item.Product)
		}
		line := core.InvoiceLineRequest{ProductName: item.Product, Quantity: qty}
		if item.UnitPrice != "" {
			if price, err := decimal.NewFromString(item.UnitPrice); err == nil {
				line.UnitPrice = &price
			}
		}
		lines[i] = line
		desc[i] = fmt.Sprintf("%s x%s", item.Product, item.Quantity)
	}
	return lines, desc, nil
}

// findDraft resolves the "which draft" question for CONFIRM_INVOICE,
// SHOW_PENDING_INVOICE and TOGGLE_GST: the draft whose customer name matches
// the customer entity, else the shop's sole draft, else ask which bill. Drafts
// are read from the shop-level list only; there is no per-session draft.
func findDraft(ctx context.Context, d *Dispatcher, req Request) (*conv.Draft, Result, bool) {
	drafts, err := d.ConvStore.ListDrafts(ctx, req.ShopID)
	if err != nil {
		return nil, fail(apperr.InternalError), false
	}
	if len(drafts) == 0 {
		return nil, fail(apperr.NoInvoice), false
	}

	if name := strings.TrimSpace(req.Entities["customer"]); name != "" {
		for i := range drafts {
			if strings.EqualFold(drafts[i].CustomerName, name) {
				return &drafts[i], Result{}, true
			}
		}
	}

	if len(drafts) == 1 {
		return &drafts[0], Result{}, true
	}

	names := make([]string, len(drafts))
	for i, dr := range drafts {
		names[i] = dr.CustomerName
	}
	return nil, Result{
		Success: false, Error: apperr.AwaitingConfirm,
		Message: "Kaunsa bill confirm karna hai?",
		Data:    map[string]any{"drafts": names},
	}, false
}

func execConfirmInvoice(ctx context.Context, d *Dispatcher, req Request) Result {
	draft, res, found := findDraft(ctx, d, req)
	if !found {
		return res
	}

	lines := make([]core.InvoiceLineRequest, len(draft.ResolvedItems))
	for i, item := range draft.ResolvedItems {
		qty, _ := decimal.NewFromString(item.Quantity)
		price, _ := decimal.NewFromString(item.UnitPrice)
		lines[i] = core.InvoiceLineRequest{ProductName: item.ProductName, Quantity: qty, UnitPrice: &price}
	}

	supply := gst.Intrastate
	invoice, err := d.Store.ConfirmInvoice(ctx, req.ShopID, draft.CustomerID, lines, supply, "")
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to confirm invoice")
		metrics.InvoiceOperationsTotal.WithLabelValues("create", "error").Inc()
		if errors.Is(err, core.ErrInsufficientStock) {
			return fail(apperr.InsufficientStock)
		}
		return fail(apperr.InternalError)
	}
	metrics.InvoiceOperationsTotal.WithLabelValues("create", "success").Inc()
	_ = d.ConvStore.RemoveDraft(ctx, req.ShopID, draft.DraftID)

	if draft.CustomerEmail != "" && d.Email != nil {
		if err := d.Email.Send(ctx, draft.CustomerEmail, "Invoice "+invoice.InvoiceNo,
			"Aapka invoice "+invoice.InvoiceNo+" total ₹"+invoice.Total); err != nil {
			d.Log.Error().Err(err).Msg("failed to email invoice")
		}
		return ok(map[string]any{"invoiceNo": invoice.InvoiceNo, "total": invoice.Total, "message": "Invoice email kar diya gaya."})
	}

	if err := d.ConvStore.SetPendingEmail(ctx, req.ShopID, conv.PendingEmail{
		CustomerID: draft.CustomerID, CustomerName: draft.CustomerName, InvoiceID: invoice.ID,
		Items: draft.ResolvedItems, Total: invoice.Total,
	}); err != nil {
		d.Log.Error().Err(err).Msg("failed to store pending email")
	}

	return Result{
		Success: true,
		Data:    map[string]any{"invoiceNo": invoice.InvoiceNo, "total": invoice.Total, "awaitingEmail": true},
		Message: "Invoice confirm ho gaya. Email address batayein invoice bhejne ke liye.",
	}
}

func execShowPendingInvoice(ctx context.Context, d *Dispatcher, req Request) Result {
	draft, res, found := findDraft(ctx, d, req)
	if !found {
		return res
	}
	return ok(map[string]any{
		"customer": draft.CustomerName, "items": draft.ResolvedItems,
		"subtotal": draft.Subtotal, "grandTotal": draft.GrandTotal, "withGst": draft.WithGST,
	})
}

func execToggleGST(ctx context.Context, d *Dispatcher, req Request) Result {
	draft, res, found := findDraft(ctx, d, req)
	if !found {
		return res
	}

	lines := make([]core.InvoiceLineRequest, len(draft.ResolvedItems))
	for i, item := range draft.ResolvedItems {
		qty, _ := decimal.NewFromString(item.Quantity)
		price, _ := decimal.NewFromString(item.UnitPrice)
		lines[i] = core.InvoiceLineRequest{ProductName: item.ProductName, Quantity: qty, UnitPrice: &price}
	}

	customer, err := d.Store.GetCustomer(ctx, draft.CustomerID)
	if err != nil {
		return fail(apperr.CustomerNotFound)
	}

	preview, err := d.Store.PreviewInvoice(ctx, req.ShopID, draft.CustomerID, lines, supplyTypeFor(*customer))
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to re-preview invoice for gst toggle")
		return fail(apperr.InternalError)
	}

	newWithGST := !draft.WithGST
	updated := previewToDraft(*customer, preview, newWithGST, draft.InputItems)
	if err := d.ConvStore.UpdateDraft(ctx, req.ShopID, draft.DraftID, updated); err != nil {
		d.Log.Error().Err(err).Msg("failed to update draft after gst toggle")
		return fail(apperr.InternalError)
	}

	return ok(map[string]any{"total": updated.GrandTotal, "withGst": newWithGST})
}

func execCancelInvoice(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	invoice, err := d.Store.GetLastInvoice(ctx, customer.ID)
	if err != nil {
		if err == core.ErrInvoiceNotFound {
			return fail(apperr.NoInvoice)
		}
		return fail(apperr.InternalError)
	}
	if invoice.Status == core.InvoiceStatusCancelled {
		return fail(apperr.AlreadyCancelled)
	}
	if err := d.Store.CancelInvoice(ctx, invoice.ID); err != nil {
		if err == core.ErrAlreadyCancelled {
			return fail(apperr.AlreadyCancelled)
		}
		d.Log.Error().Err(err).Msg("failed to cancel invoice")
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"invoiceId": invoice.ID})
}

func execProvideEmail(ctx context.Context, d *Dispatcher, req Request) Result {
	email := strings.TrimSpace(req.Entities["email"])
	if !strings.Contains(email, "@") {
		return fail(apperr.ValidationFailed)
	}

	pending, err := d.ConvStore.GetPendingEmail(ctx, req.ShopID)
	if err != nil {
		return fail(apperr.InternalError)
	}
	if pending != nil {
		e := email
		if _, err := d.Store.UpdateCustomer(ctx, pending.CustomerID, core.CustomerUpdate{Email: &e}); err != nil {
			d.Log.Error().Err(err).Msg("failed to save customer email")
		}
		if d.Email != nil {
			if err := d.Email.Send(ctx, email, "Your invoice", "Total: ₹"+pending.Total); err != nil {
				d.Log.Error().Err(err).Msg("failed to send pending invoice email")
			}
		}
		_ = d.ConvStore.ClearPendingEmail(ctx, req.ShopID)
		return ok(map[string]any{"email": email, "customer": pending.CustomerName})
	}

	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	e := email
	if _, err := d.Store.UpdateCustomer(ctx, customer.ID, core.CustomerUpdate{Email: &e}); err != nil {
		d.Log.Error().Err(err).Msg("failed to update active customer email")
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"email": email, "customer": customer.Name})
}

func execSendInvoice(ctx context.Context, d *Dispatcher, req Request) Result {
	channel := req.Entities["channel"]
	contact := req.Entities["contact"]
	if channel == "" || contact == "" {
		return fail(apperr.ValidationFailed)
	}

	var invoiceID int
	if pending, err := d.ConvStore.GetPendingEmail(ctx, req.ShopID); err == nil && pending != nil {
		invoiceID = pending.InvoiceID
	}

	if err := d.ConvStore.SetPendingSendConfirmation(ctx, req.ShopID, conv.PendingSendConfirmation{
		Channel: channel, Contact: contact, InvoiceID: invoiceID,
	}); err != nil {
		d.Log.Error().Err(err).Msg("failed to store pending send confirmation")
		return fail(apperr.InternalError)
	}
	return Result{Success: true, Message: "Confirm karein (haan/nahi)?"}
}
