package conv

import (
	"context"
	"fmt"
	"strings"
)

// FormatContextPrompt composes the single string injected into the LLM
// classifier's prompt: recent messages, a summary of the last 3 tracked
// customers (current one flagged), and pending-state routing hints drawn from
// the shop-level keys.
func (s *Store) FormatContextPrompt(ctx context.Context, shopID, sessionID string, n int) (string, error) {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	messages := mem.Messages
	if n > 0 && n < len(messages) {
		messages = messages[len(messages)-n:]
	}
	if len(messages) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, m := range messages {
			fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(m.Role), m.Content)
		}
	}

	if len(mem.CustomerHistory) > 0 {
		b.WriteString("\nRecently discussed customers:\n")
		start := len(mem.CustomerHistory) - 3
		if start < 0 {
			start = 0
		}
		for _, c := range mem.CustomerHistory[start:] {
			current := ""
			if mem.ActiveCustomer != nil && mem.ActiveCustomer.ID == c.ID {
				current = " (current)"
			}
			fmt.Fprintf(&b, "- %s%s: mentioned %d time(s)", c.Name, current, c.MentionCount)
			if c.LatestBalance != "" {
				fmt.Fprintf(&b, ", balance ₹%s", c.LatestBalance)
			}
			if c.LatestIntent != "" {
				fmt.Fprintf(&b, ", last intent %s", c.LatestIntent)
			}
			b.WriteString("\n")
		}
	}

	drafts, err := s.ListDrafts(ctx, shopID)
	if err != nil {
		return "", err
	}
	switch len(drafts) {
	case 0:
	case 1:
		d := drafts[0]
		fmt.Fprintf(&b, "\nPENDING INVOICE awaiting confirmation for %s: %s, total ₹%s — interpret 'haan/confirm/ok' as CONFIRM_INVOICE; 'nahi/cancel' as CANCEL_INVOICE.\n",
			d.CustomerName, summarizeItems(d.ResolvedItems), d.GrandTotal)
	default:
		b.WriteString("\nMULTIPLE PENDING INVOICES awaiting confirmation:\n")
		for _, d := range drafts {
			fmt.Fprintf(&b, "- %s: %s, total ₹%s\n", d.CustomerName, summarizeItems(d.ResolvedItems), d.GrandTotal)
		}
		b.WriteString("Ask the shopkeeper which bill they mean before confirming.\n")
	}

	if email, err := s.GetPendingEmail(ctx, shopID); err != nil {
		return "", err
	} else if email != nil {
		fmt.Fprintf(&b, "\nPENDING EMAIL: invoice for %s is confirmed but has no delivery address yet; the next utterance is likely an email address.\n", email.CustomerName)
	}

	if conf, err := s.GetPendingSendConfirmation(ctx, shopID); err != nil {
		return "", err
	} else if conf != nil {
		fmt.Fprintf(&b, "\nPENDING SEND CONFIRMATION: awaiting haan/nahi to send invoice via %s to %s.\n", conf.Channel, conf.Contact)
	}

	return b.String(), nil
}

func summarizeItems(items []DraftItem) string {
	parts := make([]string, len(items))
	for i, it := range items {
		parts[i] = fmt.Sprintf("%s×%s", it.ProductName, it.Quantity)
	}
	return strings.Join(parts, ", ")
}
