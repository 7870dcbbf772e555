package conv

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"dukaan-agent/internal/fuzzy"
)

// Store is the Redis-backed conversation store. One Store is shared by every
// session on the process; session isolation comes entirely from the key
// namespace, not from in-process state.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore constructs a Store. ttl is set on a session or shop-level key each
// time that key is written; reading a key leaves its expiry unchanged.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 4 * time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionID string) string { return "conv:" + sessionID + ":mem" }
func shopDraftsKey(shopID string) string { return "shop:" + shopID + ":pending_invoices" }
func shopEmailKey(shopID string) string  { return "shop:" + shopID + ":pending_email" }
func shopSendConfKey(shopID string) string { return "shop:" + shopID + ":pending_send_conf" }

// LoadSession fetches the session's memory, creating an empty one if absent.
func (s *Store) LoadSession(ctx context.Context, sessionID string) (*SessionMemory, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return newSessionMemory(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var mem SessionMemory
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, fmt.Errorf("failed to decode session memory: %w", err)
	}
	if mem.Context == nil {
		mem.Context = make(map[string]string)
	}
	if mem.RecentByName == nil {
		mem.RecentByName = make(map[string]int)
	}
	return &mem, nil
}

func (s *Store) saveSession(ctx context.Context, sessionID string, mem *SessionMemory) error {
	raw, err := json.Marshal(mem)
	if err != nil {
		return fmt.Errorf("failed to encode session memory: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// AppendUserMessage records a user turn, auto-tracking any mentioned customer
// and amount carried in entities.
func (s *Store) AppendUserMessage(ctx context.Context, sessionID, text, intent string, entities map[string]string) error {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return err
	}

	mem.Messages = append(mem.Messages, Message{Role: "user", Content: text, Timestamp: time.Now(), Intent: intent, Entities: entities})
	trimMessages(mem)
	mem.TurnCount++

	name := entities["customer"]
	if name == "" {
		name = entities["name"]
	}
	if name != "" {
		upd := CustomerMentionUpdate{Intent: strPtr(intent)}
		if amount, ok := entities["amount"]; ok && amount != "" {
			upd.Amount = strPtr(amount)
		}
		trackCustomerMention(mem, 0, name, upd)
	}

	return s.saveSession(ctx, sessionID, mem)
}

// AppendAssistantMessage records a system/assistant turn.
func (s *Store) AppendAssistantMessage(ctx context.Context, sessionID, text string) error {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	mem.Messages = append(mem.Messages, Message{Role: "assistant", Content: text, Timestamp: time.Now()})
	trimMessages(mem)
	return s.saveSession(ctx, sessionID, mem)
}

func trimMessages(mem *SessionMemory) {
	if len(mem.Messages) > maxMessages {
		mem.Messages = mem.Messages[len(mem.Messages)-maxMessages:]
	}
}

// GetRecentMessages returns the last n messages (n is capped at the 20 stored).
func (s *Store) GetRecentMessages(ctx context.Context, sessionID string, n int) ([]Message, error) {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n > len(mem.Messages) {
		n = len(mem.Messages)
	}
	return mem.Messages[len(mem.Messages)-n:], nil
}

// SetActiveCustomer sets the session's pronoun-resolution target and records a mention.
func (s *Store) SetActiveCustomer(ctx context.Context, sessionID string, id int, name string) error {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	mem.ActiveCustomer = &ActiveCustomer{ID: id, Name: name}
	trackCustomerMention(mem, id, name, CustomerMentionUpdate{})
	return s.saveSession(ctx, sessionID, mem)
}

// GetActiveCustomer returns the session's current active customer, or nil.
func (s *Store) GetActiveCustomer(ctx context.Context, sessionID string) (*ActiveCustomer, error) {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return mem.ActiveCustomer, nil
}

// SwitchToPreviousCustomer makes the second-to-last history entry active; a
// no-op if fewer than two customers have been tracked.
func (s *Store) SwitchToPreviousCustomer(ctx context.Context, sessionID string) (*ActiveCustomer, error) {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(mem.CustomerHistory) < 2 {
		return mem.ActiveCustomer, nil
	}
	prev := mem.CustomerHistory[len(mem.CustomerHistory)-2]
	mem.ActiveCustomer = &ActiveCustomer{ID: prev.ID, Name: prev.Name}
	if err := s.saveSession(ctx, sessionID, mem); err != nil {
		return nil, err
	}
	return mem.ActiveCustomer, nil
}

// SwitchToCustomerByName looks for an exact (case-insensitive) name match in
// history first, then falls back to fuzzy matching at threshold 0.7.
func (s *Store) SwitchToCustomerByName(ctx context.Context, sessionID, query string) (*ActiveCustomer, error) {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	if idx, ok := mem.RecentByName[lowerQuery]; ok && idx < len(mem.CustomerHistory) {
		c := mem.CustomerHistory[idx]
		mem.ActiveCustomer = &ActiveCustomer{ID: c.ID, Name: c.Name}
		return mem.ActiveCustomer, s.saveSession(ctx, sessionID, mem)
	}

	var best *CustomerContext
	var bestScore float64
	for i := range mem.CustomerHistory {
		c := &mem.CustomerHistory[i]
		if m := fuzzy.MatchIndianName(query, c.Name, 0.7); m != nil && m.Score > bestScore {
			best = c
			bestScore = m.Score
		}
	}
	if best == nil {
		return nil, nil
	}
	mem.ActiveCustomer = &ActiveCustomer{ID: best.ID, Name: best.Name}
	return mem.ActiveCustomer, s.saveSession(ctx, sessionID, mem)
}

// FindMatchingCustomers returns every tracked customer whose name scores at
// least threshold against query, descending by score.
func (s *Store) FindMatchingCustomers(ctx context.Context, sessionID, query string, threshold float64) ([]fuzzy.RankedMatch, error) {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	candidates := make([]fuzzy.Candidate, len(mem.CustomerHistory))
	for i, c := range mem.CustomerHistory {
		candidates[i] = fuzzy.Candidate{Name: c.Name, Data: c.ID}
	}
	return fuzzy.FindAllMatches(query, candidates, threshold), nil
}

// UpdateCustomerContext records the latest balance/amount/intent observed for a
// named customer already tracked in history.
func (s *Store) UpdateCustomerContext(ctx context.Context, sessionID, name string, upd CustomerMentionUpdate) error {
	mem, err := s.LoadSession(ctx, sessionID)
	if err != nil {
		return err
	}
	lowerName := strings.ToLower(strings.TrimSpace(name))
	idx, ok := mem.RecentByName[lowerName]
	if !ok || idx >= len(mem.CustomerHistory) {
		return nil
	}
	applyMentionUpdate(&mem.CustomerHistory[idx], upd)
	return s.saveSession(ctx, sessionID, mem)
}

func applyMentionUpdate(c *CustomerContext, upd CustomerMentionUpdate) {
	if upd.Balance != nil {
		c.LatestBalance = *upd.Balance
	}
	if upd.Amount != nil {
		c.LatestAmount = *upd.Amount
	}
	if upd.Intent != nil && *upd.Intent != "" {
		c.LatestIntent = *upd.Intent
	}
}

// trackCustomerMention dedupes against fuzzy.IsSamePerson: a match bumps mention
// count and moves the entry to the end (most recent); otherwise it is appended.
// History is capped at maxCustomerHistory, evicting the oldest and its
// recent-by-name index.
func trackCustomerMention(mem *SessionMemory, id int, name string, upd CustomerMentionUpdate) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	for i, c := range mem.CustomerHistory {
		if fuzzy.IsSamePerson(c.Name, name) {
			c.MentionCount++
			c.LastMentioned = time.Now()
			if id != 0 {
				c.ID = id
			}
			applyMentionUpdate(&c, upd)
			mem.CustomerHistory = append(mem.CustomerHistory[:i], mem.CustomerHistory[i+1:]...)
			mem.CustomerHistory = append(mem.CustomerHistory, c)
			rebuildRecentByName(mem)
			return
		}
	}

	c := CustomerContext{ID: id, Name: name, LastMentioned: time.Now(), MentionCount: 1}
	applyMentionUpdate(&c, upd)
	mem.CustomerHistory = append(mem.CustomerHistory, c)
	if len(mem.CustomerHistory) > maxCustomerHistory {
		mem.CustomerHistory = mem.CustomerHistory[len(mem.CustomerHistory)-maxCustomerHistory:]
	}
	rebuildRecentByName(mem)
}

func rebuildRecentByName(mem *SessionMemory) {
	mem.RecentByName = make(map[string]int, len(mem.CustomerHistory))
	for i, c := range mem.CustomerHistory {
		mem.RecentByName[strings.ToLower(c.Name)] = i
	}
}

func strPtr(s string) *string { return &s }
