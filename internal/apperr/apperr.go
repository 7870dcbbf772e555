// Package apperr defines the dispatcher's machine-readable error codes and
// their Hinglish user-facing messages, grounded on the teacher's errorResponse
// struct in internal/adapters/web/errors.go (Error/Code/RequestID), adapted
// from an HTTP error envelope to the dispatcher's tagged result codes.
package apperr

// Code is a machine-readable error code surfaced in dispatch results and the
// HTTP error envelope. The dispatcher never leaks a raw storage error string.
type Code string

const (
	CustomerNotFound  Code = "CUSTOMER_NOT_FOUND"
	ProductNotFound   Code = "PRODUCT_NOT_FOUND"
	NoInvoice         Code = "NO_INVOICE"
	NoReminder        Code = "NO_REMINDER"
	Conflict          Code = "CONFLICT"
	DuplicateFound    Code = "DUPLICATE_FOUND"
	AlreadyCancelled  Code = "ALREADY_CANCELLED"
	InsufficientStock Code = "INSUFFICIENT_STOCK"
	Unauthorized      Code = "UNAUTHORIZED"
	MultipleCustomers Code = "MULTIPLE_CUSTOMERS"
	ValidationFailed  Code = "VALIDATION_FAILED"
	UnknownIntent     Code = "UNKNOWN_INTENT"
	OTPSent           Code = "OTP_SENT"
	AwaitingEmail     Code = "AWAITING_EMAIL"
	AwaitingConfirm   Code = "AWAITING_CONFIRM"
	InternalError     Code = "INTERNAL_ERROR"
)

// Phrasebook maps each code to the Hinglish message the templater falls back
// to when no dispatcher-provided message is present. Operators can extend this
// table without touching dispatch logic.
var Phrasebook = map[Code]string{
	CustomerNotFound:  "Customer nahi mila. Naya customer add karein?",
	ProductNotFound:   "Yeh product catalogue mein nahi hai.",
	NoInvoice:         "Koi invoice nahi mila.",
	NoReminder:        "Koi pending reminder nahi hai.",
	Conflict:          "Yeh naam pehle se registered hai.",
	DuplicateFound:    "Isse milta julta customer pehle se hai, confirm karein.",
	AlreadyCancelled:  "Yeh invoice pehle se cancel ho chuka hai.",
	InsufficientStock: "Itna stock available nahi hai.",
	Unauthorized:      "Is kaam ke liye admin permission chahiye.",
	MultipleCustomers: "Ek se zyada customer mile, kaunsa wala?",
	ValidationFailed:  "Kuch jaankari missing hai, dobara batayein.",
	UnknownIntent:     "Samajh nahi aaya, phir se try karo.",
	OTPSent:           "Confirmation code admin email par bhej diya gaya hai.",
	AwaitingEmail:     "Email address batayein, invoice bhejne ke liye.",
	AwaitingConfirm:   "Confirm karein ya cancel karein?",
	InternalError:     "Kuch problem aaya. Phir se try karo.",
}

// Message returns the phrasebook entry for code, falling back to the generic
// internal-error message for an unregistered code.
func Message(code Code) string {
	if msg, ok := Phrasebook[code]; ok {
		return msg
	}
	return Phrasebook[InternalError]
}
