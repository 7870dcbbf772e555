package dispatch

import (
	"context"
	"strconv"
	"time"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/core"
)

func execCreateReminder(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	if customer.Phone == "" {
		return failMsg(apperr.ValidationFailed, "Customer ka phone number nahi hai.")
	}
	amount, valid := parseAmount(req)
	if !valid {
		return fail(apperr.ValidationFailed)
	}
	at, ok := parseDatetime(req.Entities["datetime"])
	if !ok {
		return fail(apperr.ValidationFailed)
	}

	reminder, err := d.Store.ScheduleReminder(ctx, customer.ID, at, amount.StringFixed(2), func(ctx context.Context, customerID int, at time.Time, notes string) (string, error) {
		if d.Jobs == nil {
			return "", nil
		}
		return d.Jobs.Enqueue(ctx, at, map[string]string{"customerId": strconv.Itoa(customerID), "phone": customer.Phone, "notes": notes})
	})
	if err != nil {
		d.Log.Error().Err(err).Msg("failed to schedule reminder")
	}
	if reminder == nil {
		return fail(apperr.InternalError)
	}

	return ok(map[string]any{"reminderId": reminder.ID})
}

func execCancelReminder(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	reminders, err := d.Store.ListReminders(ctx, customer.ID)
	if err != nil {
		return fail(apperr.InternalError)
	}
	var target *core.Reminder
	for i := range reminders {
		if reminders[i].Status == core.ReminderScheduled {
			target = &reminders[i]
			break
		}
	}
	if target == nil {
		return fail(apperr.NoReminder)
	}

	jobID, err := d.Store.CancelReminder(ctx, target.ID)
	if err != nil {
		if err == core.ErrReminderNotFound {
			return fail(apperr.NoReminder)
		}
		return fail(apperr.InternalError)
	}
	if jobID != "" && d.Jobs != nil {
		_ = d.Jobs.Cancel(ctx, jobID)
	}
	return ok(map[string]any{"reminderId": target.ID})
}

func execModifyReminder(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	at, ok := parseDatetime(req.Entities["datetime"])
	if !ok {
		return fail(apperr.ValidationFailed)
	}
	reminders, err := d.Store.ListReminders(ctx, customer.ID)
	if err != nil {
		return fail(apperr.InternalError)
	}
	var target *core.Reminder
	for i := range reminders {
		if reminders[i].Status == core.ReminderScheduled {
			target = &reminders[i]
			break
		}
	}
	if target == nil {
		return fail(apperr.NoReminder)
	}
	if err := d.Store.ModifyReminder(ctx, target.ID, at); err != nil {
		if err == core.ErrReminderNotFound {
			return fail(apperr.NoReminder)
		}
		return fail(apperr.InternalError)
	}
	return ok(map[string]any{})
}

func execListReminders(ctx context.Context, d *Dispatcher, req Request) Result {
	customer, res, found := resolveCustomer(ctx, d, req)
	if !found {
		return res
	}
	reminders, err := d.Store.ListReminders(ctx, customer.ID)
	if err != nil {
		return fail(apperr.InternalError)
	}
	var pending []core.Reminder
	for _, r := range reminders {
		if r.Status == core.ReminderScheduled {
			pending = append(pending, r)
		}
	}
	return ok(map[string]any{"list": pending, "count": len(pending)})
}

func parseDatetime(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
