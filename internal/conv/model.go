// Package conv implements the conversation store (component C): per-session
// and per-shop state held in Redis with TTL, surviving WebSocket reconnects.
// It is grounded on the teacher's transactional discipline generalized from
// Postgres rows to whole-value JSON replace under a TTL key, the pattern the
// rest of the retrieval pack uses for Redis-backed session state.
package conv

import "time"

// Message is one turn of the conversation, stored newest-last.
type Message struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Timestamp time.Time         `json:"timestamp"`
	Intent    string            `json:"intent,omitempty"`
	Entities  map[string]string `json:"entities,omitempty"`
}

// ActiveCustomer is the session's current pronoun-resolution target ("uska",
// "iska"). It is a first-class value in session memory, never a global.
type ActiveCustomer struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CustomerContext tracks one customer mentioned in the session, most-recent
// kept at the end of SessionMemory.CustomerHistory.
type CustomerContext struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	LastMentioned time.Time `json:"last_mentioned"`
	MentionCount  int       `json:"mention_count"`
	LatestBalance string    `json:"latest_balance,omitempty"`
	LatestAmount  string    `json:"latest_amount,omitempty"`
	LatestIntent  string    `json:"latest_intent,omitempty"`
}

// SessionMemory is the full value stored at conv:{sessionId}:mem.
type SessionMemory struct {
	Messages        []Message          `json:"messages"`
	Context         map[string]string  `json:"context"`
	ActiveCustomer  *ActiveCustomer    `json:"active_customer,omitempty"`
	CustomerHistory []CustomerContext  `json:"customer_history"`
	RecentByName    map[string]int     `json:"recent_by_name"` // lowercase name -> index into CustomerHistory
	TurnCount       int                `json:"turn_count"`
}

func newSessionMemory() *SessionMemory {
	return &SessionMemory{
		Messages:     make([]Message, 0, 8),
		Context:      make(map[string]string),
		RecentByName: make(map[string]int),
	}
}

const (
	maxMessages        = 20
	maxCustomerHistory = 10
)

// CustomerMentionUpdate carries the optional fields an intent can report about
// the customer it just mentioned.
type CustomerMentionUpdate struct {
	Balance *string
	Amount  *string
	Intent  *string
}

// Draft is an in-flight invoice draft keyed by customer, stored shop-wide so it
// survives a session dying and being resumed from a different connection.
type Draft struct {
	DraftID             string    `json:"draft_id"`
	CustomerID          int       `json:"customer_id"`
	CustomerName        string    `json:"customer_name"`
	CustomerEmail       string    `json:"customer_email,omitempty"`
	ResolvedItems       []DraftItem `json:"resolved_items"`
	InputItems          []string  `json:"input_items"`
	Subtotal            string    `json:"subtotal"`
	GrandTotal          string    `json:"grand_total"`
	WithGST             bool      `json:"with_gst"`
	AutoCreatedProducts []string  `json:"auto_created_products,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// DraftItem is one resolved line of a Draft.
type DraftItem struct {
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

// PendingEmail is a confirmed, undelivered invoice awaiting a recipient.
type PendingEmail struct {
	CustomerID   int    `json:"customer_id"`
	CustomerName string `json:"customer_name"`
	InvoiceID    int    `json:"invoice_id"`
	Items        []DraftItem `json:"items"`
	Total        string `json:"total"`
}

// PendingSendConfirmation awaits a "haan/nahi" before a channel send proceeds.
type PendingSendConfirmation struct {
	Channel   string `json:"channel"`
	Contact   string `json:"contact"`
	InvoiceID int    `json:"invoice_id"`
}
