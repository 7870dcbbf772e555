// Package core implements the ledger/inventory store: ACID operations over
// customers, products, invoices, payments, ledger entries, and reminders for a
// single shop. It is grounded on the teacher's internal/core package — the same
// pgx transaction discipline, the same gapless sequence-number upsert, and the
// same decimal money handling — generalized from a multi-company general ledger
// to a single-shop retail ledger.
package core

import "time"

// LedgerEntryType distinguishes additions to a customer's balance from reductions.
type LedgerEntryType string

const (
	EntryDebit           LedgerEntryType = "DEBIT"
	EntryCredit          LedgerEntryType = "CREDIT"
	EntryOpeningBalance  LedgerEntryType = "OPENING_BALANCE"
)

// InvoiceStatus is the lifecycle state of a confirmed invoice.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// PaymentMethod is how a customer paid against their balance.
type PaymentMethod string

const (
	PaymentCash  PaymentMethod = "cash"
	PaymentUPI   PaymentMethod = "upi"
	PaymentCard  PaymentMethod = "card"
	PaymentOther PaymentMethod = "other"
)

// ReminderStatus is the lifecycle state of a scheduled payment reminder.
type ReminderStatus string

const (
	ReminderScheduled ReminderStatus = "SCHEDULED"
	ReminderSent      ReminderStatus = "SENT"
	ReminderCancelled ReminderStatus = "CANCELLED"
	ReminderFailed    ReminderStatus = "FAILED"
)

// Customer is a shop customer. Balance is always the sum of ledger entries —
// DEBIT and OPENING_BALANCE increase it, CREDIT decreases it — and must never be
// recomputed from source except via an explicit ReconcileBalance call.
type Customer struct {
	ID              int        `json:"id"`
	ShopID          string     `json:"shop_id"`
	Name            string     `json:"name"`
	Phone           string     `json:"phone,omitempty"`
	Nickname        string     `json:"nickname,omitempty"`
	Landmark        string     `json:"landmark,omitempty"`
	Email           string     `json:"email,omitempty"`
	GSTIN           string     `json:"gstin,omitempty"`
	Balance         string     `json:"balance"` // decimal, quoted string on the wire
	TotalPurchases  string     `json:"total_purchases"`
	VisitCount      int        `json:"visit_count"`
	LastVisit       *time.Time `json:"last_visit,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Product is a catalogue item. Auto-created placeholder products (price=0,
// stock=9999) are flagged via IsAutoCreated so callers can warn the shopkeeper.
type Product struct {
	ID            int    `json:"id"`
	ShopID        string `json:"shop_id"`
	Name          string `json:"name"`
	Unit          string `json:"unit"`
	Price         string `json:"price"`
	Stock         int    `json:"stock"`
	HSNCode       string `json:"hsn_code,omitempty"`
	GSTRate       string `json:"gst_rate"`
	CessRate      string `json:"cess_rate"`
	IsGSTExempt   bool   `json:"is_gst_exempt"`
	IsActive      bool   `json:"is_active"`
	IsAutoCreated bool   `json:"is_auto_created,omitempty"`
}

// Invoice is a confirmed, persisted bill. InvoiceNo is assigned only at confirm
// time and is formatted "<FY>/INV/<SEQ>" — never reused even after cancellation.
type Invoice struct {
	ID          int       `json:"id"`
	ShopID      string    `json:"shop_id"`
	InvoiceNo   string    `json:"invoice_no"`
	CustomerID  int       `json:"customer_id"`
	Date        time.Time `json:"date"`
	Subtotal    string    `json:"subtotal"`
	CGST        string    `json:"cgst"`
	SGST        string    `json:"sgst"`
	IGST        string    `json:"igst"`
	Cess        string    `json:"cess"`
	Total       string    `json:"total"`
	Status      InvoiceStatus `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	PDFObjectKey string   `json:"pdf_object_key,omitempty"`
	PDFURL      string    `json:"pdf_url,omitempty"`
}

// InvoiceItem is one resolved, priced line of an invoice.
type InvoiceItem struct {
	ID          int    `json:"id"`
	InvoiceID   int    `json:"invoice_id"`
	ProductID   *int   `json:"product_id,omitempty"`
	ProductName string `json:"product_name"`
	Unit        string `json:"unit"`
	HSNCode     string `json:"hsn_code,omitempty"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	GSTRate     string `json:"gst_rate"`
	CGST        string `json:"cgst"`
	SGST        string `json:"sgst"`
	IGST        string `json:"igst"`
	Cess        string `json:"cess"`
	Subtotal    string `json:"subtotal"`
	Total       string `json:"total"`
}

// LedgerEntry is an append-only record of a customer balance change. Reversals
// are new CREDIT entries referencing the original — entries are never deleted.
type LedgerEntry struct {
	ID          int             `json:"id"`
	CustomerID  int             `json:"customer_id"`
	Type        LedgerEntryType `json:"type"`
	Amount      string          `json:"amount"`
	Description string          `json:"description"`
	Reference   string          `json:"reference,omitempty"`
	PaymentMode string          `json:"payment_mode,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Payment records money received from a customer.
type Payment struct {
	ID         int           `json:"id"`
	CustomerID int           `json:"customer_id"`
	Amount     string        `json:"amount"`
	Method     PaymentMethod `json:"method"`
	Status     string        `json:"status"`
	ReceivedAt time.Time     `json:"received_at"`
}

// Reminder is a scheduled payment-collection nudge handed to an external job queue.
type Reminder struct {
	ID             int            `json:"id"`
	CustomerID     int            `json:"customer_id"`
	ScheduledTime  time.Time      `json:"scheduled_time"`
	Status         ReminderStatus `json:"status"`
	Notes          string         `json:"notes,omitempty"`
	ExternalJobID  string         `json:"external_job_id,omitempty"`
}

// SupplyType mirrors gst.SupplyType for storage-layer calls that don't want to
// import the gst package's type directly at the field-declaration site.
type SupplyType string

const (
	Intrastate SupplyType = "INTRASTATE"
	Interstate SupplyType = "INTERSTATE"
)
