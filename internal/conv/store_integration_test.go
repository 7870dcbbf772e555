package conv

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("CONV_TEST_REDIS_URL")
	if url == "" {
		t.Skip("CONV_TEST_REDIS_URL not set, skipping conversation store integration test")
	}
	opt, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opt)

	ctx := context.Background()
	require.NoError(t, rdb.Ping(ctx).Err())

	return NewStore(rdb, 4*time.Hour)
}

func TestStore_AppendMessagesAndRecentMessages(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := "test-session-messages"
	defer s.rdb.Del(ctx, sessionKey(sessionID))

	require.NoError(t, s.AppendUserMessage(ctx, sessionID, "bharat ko ek bill banao", "CREATE_INVOICE", map[string]string{"customer": "Bharat"}))
	require.NoError(t, s.AppendAssistantMessage(ctx, sessionID, "kitne items?"))

	msgs, err := s.GetRecentMessages(ctx, sessionID, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "assistant", msgs[1].Role)

	active, err := s.GetActiveCustomer(ctx, sessionID)
	require.NoError(t, err)
	require.Nil(t, active) // AppendUserMessage tracks history, not active customer
}

func TestStore_SetActiveCustomerAndSwitchToPrevious(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	sessionID := "test-session-active"
	defer s.rdb.Del(ctx, sessionKey(sessionID))

	require.NoError(t, s.SetActiveCustomer(ctx, sessionID, 1, "Bharat"))
	require.NoError(t, s.SetActiveCustomer(ctx, sessionID, 2, "Suresh"))

	active, err := s.GetActiveCustomer(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, "Suresh", active.Name)

	prev, err := s.SwitchToPreviousCustomer(ctx, sessionID)
	require.NoError(t, err)
	require.Equal(t, "Bharat", prev.Name)
}

func TestStore_DraftLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	shopID := "test-shop-drafts"
	defer s.ClearDrafts(ctx, shopID)

	id1, err := s.AddDraft(ctx, shopID, Draft{CustomerID: 1, CustomerName: "Bharat", GrandTotal: "250.00"})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	// a second draft for the same customer replaces the first
	id2, err := s.AddDraft(ctx, shopID, Draft{CustomerID: 1, CustomerName: "Bharat", GrandTotal: "300.00"})
	require.NoError(t, err)

	drafts, err := s.ListDrafts(ctx, shopID)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	require.Equal(t, id2, drafts[0].DraftID)
	require.Equal(t, "300.00", drafts[0].GrandTotal)

	require.NoError(t, s.RemoveDraft(ctx, shopID, id2))
	drafts, err = s.ListDrafts(ctx, shopID)
	require.NoError(t, err)
	require.Empty(t, drafts)
}

func TestStore_FormatContextPrompt_IncludesPendingInvoiceHint(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	shopID := "test-shop-prompt"
	sessionID := "test-session-prompt"
	defer s.ClearDrafts(ctx, shopID)
	defer s.rdb.Del(ctx, sessionKey(sessionID))

	_, err := s.AddDraft(ctx, shopID, Draft{
		CustomerID: 1, CustomerName: "Bharat", GrandTotal: "250.00",
		ResolvedItems: []DraftItem{{ProductName: "chawal", Quantity: "2"}},
	})
	require.NoError(t, err)

	prompt, err := s.FormatContextPrompt(ctx, shopID, sessionID, 20)
	require.NoError(t, err)
	require.Contains(t, prompt, "PENDING INVOICE")
	require.Contains(t, prompt, "Bharat")
	require.Contains(t, prompt, "CONFIRM_INVOICE")
}
