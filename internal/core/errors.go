package core

import "errors"

// Typed business errors. The dispatcher never propagates a raw storage error to
// the client (§7) — every storage-layer failure that the voice/HTTP surface needs
// to distinguish is one of these sentinels, checked with errors.Is.
var (
	ErrCustomerNotFound  = errors.New("CUSTOMER_NOT_FOUND")
	ErrProductNotFound   = errors.New("PRODUCT_NOT_FOUND")
	ErrInvoiceNotFound   = errors.New("NO_INVOICE")
	ErrReminderNotFound  = errors.New("NO_REMINDER")
	ErrConflict          = errors.New("CONFLICT")
	ErrDuplicateFound    = errors.New("DUPLICATE_FOUND")
	ErrAlreadyCancelled  = errors.New("ALREADY_CANCELLED")
	ErrInsufficientStock = errors.New("INSUFFICIENT_STOCK")
	ErrUnauthorized      = errors.New("UNAUTHORIZED")
)
