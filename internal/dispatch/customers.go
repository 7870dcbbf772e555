package dispatch

import (
	"context"
	cryptorand "crypto/rand"
	"strings"

	"github.com/shopspring/decimal"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/core"
)

func execTotalPendingAmount(ctx context.Context, d *Dispatcher, req Request) Result {
	total, err := d.Store.GetTotalPendingAmount(ctx, req.ShopID)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to compute total pending amount")
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"total": total})
}

func execListCustomerBalances(ctx context.Context, d *Dispatcher, req Request) Result {
	customers, err := d.Store.GetAllCustomersWithPendingBalance(ctx, req.ShopID)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to list customer balances")
		return fail(apperr.InternalError)
	}
	total, err := d.Store.GetTotalPendingAmount(ctx, req.ShopID)
	if err != nil {
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"list": customers, "total": total})
}

func execCheckBalance(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	balance, err := d.Store.GetBalanceFast(ctx, customer.ID)
	if err != nil {
		d.Log.Error().Err(err).Int("customer_id", customer.ID).Msg("failed to read balance")
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{"name": customer.Name, "balance": balance})
}

func execCreateCustomer(ctx context.Context, d *Dispatcher, req Request) Result {
	name := strings.TrimSpace(req.Entities["name"])
	if name == "" {
		name = strings.TrimSpace(req.Entities["customer"])
	}
	if name == "" {
		return fail(apperr.ValidationFailed)
	}

	result, err := d.Store.CreateCustomerFast(ctx, req.ShopID, name, req.Entities["phone"], req.Entities["nickname"], req.Entities["landmark"])
	if err != nil {
		if err == core.ErrConflict {
			return fail(apperr.Conflict)
		}
		d.Log.Error().Err(err).Msg("failed to create customer")
		return fail(apperr.InternalError)
	}
	if result.DuplicateFound {
		suggestions := make([]map[string]any, len(result.Suggestions))
		for i, s := range result.Suggestions {
			suggestions[i] = map[string]any{"id": s.Customer.ID, "name": s.Customer.Name, "matchScore": s.MatchScore}
		}
		return Result{Success: false, Error: apperr.DuplicateFound, Message: apperr.Message(apperr.DuplicateFound),
			Data: map[string]any{"suggestions": suggestions}}
	}

	if amountStr, ok := req.Entities["amount"]; ok && amountStr != "" {
		if amount, err := decimal.NewFromString(amountStr); err == nil && amount.GreaterThan(decimal.Zero) {
			if err := d.Store.AddCredit(ctx, result.Customer.ID, amount, "opening balance"); err != nil {
				d.Log.Error().Err(err).Msg("failed to apply opening balance")
			}
		}
	}

	if err := d.ConvStore.SetActiveCustomer(ctx, req.SessionID, result.Customer.ID, result.Customer.Name); err != nil {
		d.Log.Error().Err(err).Msg("failed to set active customer after create")
	}
	d.Resolver.InvalidateActive(req.SessionID)

	return ok(map[string]any{"customerId": result.Customer.ID, "name": result.Customer.Name})
}

func execUpdateCustomer(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}

	upd := core.CustomerUpdate{}
	hasUpdate := false
	if v, ok := req.Entities["phone"]; ok && v != "" {
		upd.Phone = &v
		hasUpdate = true
	}
	if v, ok := req.Entities["email"]; ok && v != "" {
		upd.Email = &v
		hasUpdate = true
	}
	if v, ok := req.Entities["nickname"]; ok && v != "" {
		upd.Nickname = &v
		hasUpdate = true
	}
	if v, ok := req.Entities["landmark"]; ok && v != "" {
		upd.Landmark = &v
		hasUpdate = true
	}
	if v, ok := req.Entities["gstin"]; ok && v != "" {
		upd.GSTIN = &v
		hasUpdate = true
	}
	if !hasUpdate {
		return fail(apperr.ValidationFailed)
	}

	updated, err := d.Store.UpdateCustomer(ctx, customer.ID, upd)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to update customer")
		return fail(apperr.InternalError)
	}
	d.Resolver.InvalidateActive(req.SessionID)

	return ok(map[string]any{
		"phone": updated.Phone, "email": updated.Email, "nickname": updated.Nickname,
		"landmark": updated.Landmark, "gstin": updated.GSTIN,
	})
}

// digitsOnly renders a phone number digit-by-digit for clearer TTS, e.g.
// "9876543210" -> "9 8 7 6 5 4 3 2 1 0".
func digitsOnly(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r < '0' || r > '9' {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func execGetCustomerInfo(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	return ok(map[string]any{
		"id": customer.ID, "name": customer.Name, "phoneSpoken": digitsOnly(customer.Phone),
		"phone": customer.Phone, "nickname": customer.Nickname, "landmark": customer.Landmark,
		"email": customer.Email, "gstin": customer.GSTIN, "balance": customer.Balance,
		"totalPurchases": customer.TotalPurchases, "visitCount": customer.VisitCount,
	})
}

func execDeleteCustomerData(ctx context.Context, d *Dispatcher, req Request) Result {
	if req.Entities["operatorRole"] != "admin" && d.AdminEmail == "" {
		return fail(apperr.Unauthorized)
	}

	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}

	confirmation := strings.TrimSpace(req.Entities["confirmation"])
	if confirmation == "" {
		code := generateOTP()
		if err := d.ConvStore.SetDeleteOTP(ctx, req.ShopID, customer.ID, code); err != nil {
			d.Log.Error().Err(err).Msg("failed to store delete confirmation code")
			return fail(apperr.InternalError)
		}
		if d.AdminEmail != "" && d.Email != nil {
			if err := d.Email.Send(ctx, d.AdminEmail, "Confirm customer deletion",
				"Confirmation code for deleting "+customer.Name+": "+code); err != nil {
				d.Log.Error().Err(err).Msg("failed to send deletion OTP email")
			}
		}
		return fail(apperr.OTPSent)
	}

	stored, err := d.ConvStore.GetDeleteOTP(ctx, req.ShopID, customer.ID)
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to read delete confirmation code")
		return fail(apperr.InternalError)
	}
	if stored == "" || stored != confirmation {
		return failMsg(apperr.ValidationFailed, "Confirmation code galat ya expire ho gaya hai.")
	}

	counts, err := d.Store.DeleteCustomerAndAllData(ctx, customer.ID, func(jobID string) error {
		if d.Jobs == nil {
			return nil
		}
		return d.Jobs.Cancel(ctx, jobID)
	})
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to delete customer data")
		return fail(apperr.InternalError)
	}
	_ = d.ConvStore.ClearDeleteOTP(ctx, req.ShopID, customer.ID)
	d.Resolver.InvalidateActive(req.SessionID)

	return ok(map[string]any{
		"invoices": counts.Invoices, "invoiceItems": counts.InvoiceItems, "payments": counts.Payments,
		"ledgerEntries": counts.LedgerEntries, "reminders": counts.Reminders,
	})
}

func generateOTP() string {
	const digits = "0123456789"
	b := make([]byte, 6)
	raw := make([]byte, 6)
	_, _ = cryptorand.Read(raw)
	for i, v := range raw {
		b[i] = digits[int(v)%len(digits)]
	}
	return string(b)
}
