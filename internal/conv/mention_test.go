package conv

import "testing"

func TestTrackCustomerMention_DedupesFuzzyEqual(t *testing.T) {
	mem := newSessionMemory()
	trackCustomerMention(mem, 1, "Bharat", CustomerMentionUpdate{})
	trackCustomerMention(mem, 1, "Bharath", CustomerMentionUpdate{})

	if len(mem.CustomerHistory) != 1 {
		t.Fatalf("expected one deduped entry, got %d", len(mem.CustomerHistory))
	}
	if mem.CustomerHistory[0].MentionCount != 2 {
		t.Fatalf("expected mention count 2, got %d", mem.CustomerHistory[0].MentionCount)
	}
}

func TestTrackCustomerMention_MovesToEndOnRemention(t *testing.T) {
	mem := newSessionMemory()
	trackCustomerMention(mem, 1, "Bharat", CustomerMentionUpdate{})
	trackCustomerMention(mem, 2, "Suresh", CustomerMentionUpdate{})
	trackCustomerMention(mem, 1, "Bharat", CustomerMentionUpdate{})

	if len(mem.CustomerHistory) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(mem.CustomerHistory))
	}
	if mem.CustomerHistory[len(mem.CustomerHistory)-1].Name != "Bharat" {
		t.Fatalf("expected Bharat most recent, got %s", mem.CustomerHistory[len(mem.CustomerHistory)-1].Name)
	}
}

func TestTrackCustomerMention_CapsHistoryAtTen(t *testing.T) {
	mem := newSessionMemory()
	names := []string{"Amit", "Bhavna", "Chetan", "Divya", "Esha", "Farhan", "Gita", "Harish", "Indira", "Jatin", "Kavya"}
	for i, n := range names {
		trackCustomerMention(mem, i+1, n, CustomerMentionUpdate{})
	}

	if len(mem.CustomerHistory) != maxCustomerHistory {
		t.Fatalf("expected history capped at %d, got %d", maxCustomerHistory, len(mem.CustomerHistory))
	}
	if mem.CustomerHistory[0].Name != "Bhavna" {
		t.Fatalf("expected oldest entry Amit evicted, history starts with %s", mem.CustomerHistory[0].Name)
	}
	if _, ok := mem.RecentByName["amit"]; ok {
		t.Fatalf("expected evicted customer removed from recent-by-name index")
	}
}

func TestApplyMentionUpdate_SetsOnlyProvidedFields(t *testing.T) {
	c := CustomerContext{Name: "Bharat"}
	balance := "150.00"
	applyMentionUpdate(&c, CustomerMentionUpdate{Balance: &balance})

	if c.LatestBalance != "150.00" {
		t.Fatalf("expected balance set, got %q", c.LatestBalance)
	}
	if c.LatestAmount != "" {
		t.Fatalf("expected amount untouched, got %q", c.LatestAmount)
	}
}
