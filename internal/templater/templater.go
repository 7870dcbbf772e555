// Package templater implements the response templater (component H):
// fast-path Hinglish rendering of dispatch results for TTS, falling back to
// an external LLM responder for intents with no template. Grounded on the
// teacher's small, data-driven phrasebook idiom (internal/apperr), generalized
// from error-only messages to a full success-path template table.
package templater

import (
	"context"
	"fmt"

	"dukaan-agent/internal/apperr"
	"dukaan-agent/internal/core"
	"dukaan-agent/internal/dispatch"
	"dukaan-agent/internal/external"
)

// Templater renders a dispatch.Result into spoken Hinglish text. Responder
// may be nil, in which case intents outside the fast-path set fall back to
// the dispatcher's own Message or a generic acknowledgement.
type Templater struct {
	Responder external.Responder
}

func New(responder external.Responder) *Templater {
	return &Templater{Responder: responder}
}

// Render produces the string to hand to TTS for one dispatched intent.
func (t *Templater) Render(ctx context.Context, intent string, result dispatch.Result) string {
	if !result.Success {
		if result.Message != "" {
			return result.Message
		}
		return apperr.Message(result.Error)
	}

	if tmpl, ok := fastPath[intent]; ok {
		return tmpl(result.Data)
	}

	if t.Responder != nil {
		if text, err := t.Responder.Respond(ctx, intent, result.Data); err == nil && text != "" {
			return text
		}
	}
	if result.Message != "" {
		return result.Message
	}
	return "Ho gaya."
}

type template func(data map[string]any) string

func str(data map[string]any, key string) string {
	if v, ok := data[key]; ok && v != nil {
		return fmt.Sprint(v)
	}
	return ""
}

func boolVal(data map[string]any, key string) bool {
	v, _ := data[key].(bool)
	return v
}

func customerList(data map[string]any, key string) []core.Customer {
	if v, ok := data[key].([]core.Customer); ok {
		return v
	}
	return nil
}

var fastPath = map[string]template{
	"TOTAL_PENDING_AMOUNT": func(d map[string]any) string {
		return fmt.Sprintf("Total pending amount hai ₹%s.", str(d, "total"))
	},
	"LIST_CUSTOMER_BALANCES": func(d map[string]any) string {
		return fmt.Sprintf("%d customers ka balance pending hai, total ₹%s.", len(customerList(d, "list")), str(d, "total"))
	},
	"CHECK_BALANCE": func(d map[string]any) string {
		return fmt.Sprintf("%s ka balance ₹%s hai.", str(d, "name"), str(d, "balance"))
	},
	"CREATE_INVOICE": func(d map[string]any) string {
		return fmt.Sprintf("%s ke liye bill taiyar hai, total ₹%s. Confirm karein?", str(d, "customer"), str(d, "grandTotal"))
	},
	"CONFIRM_INVOICE": func(d map[string]any) string {
		if boolVal(d, "awaitingEmail") {
			return fmt.Sprintf("Invoice %s confirm ho gaya, total ₹%s. Email address batayein invoice bhejne ke liye.", str(d, "invoiceNo"), str(d, "total"))
		}
		return fmt.Sprintf("Invoice %s ban gaya, total ₹%s.", str(d, "invoiceNo"), str(d, "total"))
	},
	"SHOW_PENDING_INVOICE": func(d map[string]any) string {
		return fmt.Sprintf("%s ka pending bill: total ₹%s.", str(d, "customer"), str(d, "grandTotal"))
	},
	"TOGGLE_GST": func(d map[string]any) string {
		if boolVal(d, "withGst") {
			return fmt.Sprintf("GST laga diya, naya total ₹%s.", str(d, "total"))
		}
		return fmt.Sprintf("GST hata diya, naya total ₹%s.", str(d, "total"))
	},
	"PROVIDE_EMAIL": func(d map[string]any) string {
		return fmt.Sprintf("%s ko invoice %s par email kar diya.", str(d, "customer"), str(d, "email"))
	},
	"SEND_INVOICE": func(d map[string]any) string {
		return "Theek hai, bhejne se pehle confirm karein — haan ya nahi?"
	},
	"CREATE_REMINDER": func(d map[string]any) string {
		return fmt.Sprintf("Reminder laga diya gaya, ID %s.", str(d, "reminderId"))
	},
	"RECORD_PAYMENT": func(d map[string]any) string {
		return fmt.Sprintf("%s se ₹%s payment mil gaya, bacha hua balance ₹%s.", str(d, "customer"), str(d, "paid"), str(d, "remaining"))
	},
	"ADD_CREDIT": func(d map[string]any) string {
		return fmt.Sprintf("%s ke account mein ₹%s credit kar diya, total ₹%s.", str(d, "customer"), str(d, "added"), str(d, "total"))
	},
	"CHECK_STOCK": func(d map[string]any) string {
		return fmt.Sprintf("%s ka stock %s hai.", str(d, "product"), str(d, "stock"))
	},
	"CANCEL_INVOICE": func(d map[string]any) string {
		return fmt.Sprintf("Invoice %s cancel kar diya.", str(d, "invoiceId"))
	},
	"CANCEL_REMINDER": func(d map[string]any) string {
		return fmt.Sprintf("Reminder %s cancel kar diya.", str(d, "reminderId"))
	},
	"LIST_REMINDERS": func(d map[string]any) string {
		return fmt.Sprintf("%s pending reminders hain.", str(d, "count"))
	},
	"CREATE_CUSTOMER": func(d map[string]any) string {
		return fmt.Sprintf("%s naye customer ke roop mein add ho gaya.", str(d, "name"))
	},
	"MODIFY_REMINDER": func(d map[string]any) string {
		return "Reminder ka time badal diya gaya."
	},
	"DAILY_SUMMARY": func(d map[string]any) string {
		s, ok := d["summary"].(*core.DailySummary)
		if !ok || s == nil {
			return "Aaj ka summary nahi mil paaya."
		}
		return fmt.Sprintf("Aaj %d invoices bane, total ₹%s, payments ₹%s mile, aur ₹%s pending hai.",
			s.InvoiceCount, s.InvoiceTotal, s.PaymentsReceived, s.TotalOutstanding)
	},
	"UPDATE_CUSTOMER": func(d map[string]any) string {
		return "Customer ki jaankari update kar di gayi."
	},
	"UPDATE_CUSTOMER_PHONE": func(d map[string]any) string {
		return "Customer ka phone number update kar diya gaya."
	},
	"GET_CUSTOMER_INFO": func(d map[string]any) string {
		return fmt.Sprintf("%s: phone %s, balance ₹%s.", str(d, "name"), str(d, "phoneSpoken"), str(d, "balance"))
	},
	"DELETE_CUSTOMER_DATA": func(d map[string]any) string {
		return fmt.Sprintf("Customer ka data delete kar diya gaya: %s invoices, %s payments, %s reminders.",
			str(d, "invoices"), str(d, "payments"), str(d, "reminders"))
	},
	"SWITCH_LANGUAGE": func(d map[string]any) string {
		return "Theek hai, language badal di gayi."
	},
	"START_RECORDING": func(d map[string]any) string {
		return "Recording shuru."
	},
	"STOP_RECORDING": func(d map[string]any) string {
		return "Recording band."
	},
}
