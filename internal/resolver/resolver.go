// Package resolver implements the customer resolver (component F): given
// entities extracted from an utterance plus the session's conversation memory,
// produces a single resolved customer, a disambiguation candidate set, or a
// not-found result. Grounded on the teacher's resolveCompanyID helper in
// internal/core/order_service.go, generalized from a single-tenant ID lookup
// to a fuzzy, cache-then-DB, single-customer-or-candidates resolution.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"dukaan-agent/internal/conv"
	"dukaan-agent/internal/core"
)

// Kind tags which branch of Result is populated.
type Kind string

const (
	KindResolved  Kind = "resolved"
	KindMultiple  Kind = "multiple"
	KindNotFound  Kind = "not_found"
)

// Candidate is one ambiguous match surfaced to the caller.
type Candidate struct {
	Customer   core.Customer
	MatchScore float64
}

// Result is the sum-typed outcome of a resolve call.
type Result struct {
	Kind       Kind
	Customer   *core.Customer
	Candidates []Candidate
	Query      string
}

// Entities carries the subset of classifier output the resolver consumes.
type Entities struct {
	Customer    string
	Name        string
	CustomerRef string // "active" when the utterance used a pronoun
}

// activeCacheEntry is the in-process active-customer cache, keyed by session.
type activeCacheEntry struct {
	customer  core.Customer
	expiresAt time.Time
}

const activeCacheTTL = 10 * time.Minute

// Resolver ties the ledger store, conversation store, and an in-process
// active-customer cache together. One Resolver is shared across sessions.
type Resolver struct {
	store     *core.Store
	convStore *conv.Store

	mu    sync.Mutex
	cache map[string]activeCacheEntry // sessionID -> active customer
}

func New(store *core.Store, convStore *conv.Store) *Resolver {
	return &Resolver{store: store, convStore: convStore, cache: make(map[string]activeCacheEntry)}
}

func (r *Resolver) cacheGet(sessionID string) (core.Customer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.cache[sessionID]
	if !ok || time.Now().After(entry.expiresAt) {
		return core.Customer{}, false
	}
	return entry.customer, true
}

func (r *Resolver) cacheSet(sessionID string, c core.Customer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[sessionID] = activeCacheEntry{customer: c, expiresAt: time.Now().Add(activeCacheTTL)}
}

// InvalidateActive drops any cached active customer for a session, used after
// UPDATE_CUSTOMER or a customer switch.
func (r *Resolver) InvalidateActive(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cache, sessionID)
}

// Resolve implements the algorithm in §4.F.
func (r *Resolver) Resolve(ctx context.Context, shopID, sessionID string, ent Entities) (Result, error) {
	if ent.CustomerRef == "active" || (strings.TrimSpace(ent.Customer) == "" && strings.TrimSpace(ent.Name) == "") {
		return r.resolveActive(ctx, sessionID)
	}

	query := ent.Customer
	if query == "" {
		query = ent.Name
	}
	return r.searchCustomerRanked(ctx, shopID, sessionID, query)
}

func (r *Resolver) resolveActive(ctx context.Context, sessionID string) (Result, error) {
	if c, ok := r.cacheGet(sessionID); ok {
		return Result{Kind: KindResolved, Customer: &c}, nil
	}

	active, err := r.convStore.GetActiveCustomer(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to read persisted active customer: %w", err)
	}
	if active == nil {
		return Result{Kind: KindNotFound}, nil
	}

	customer, err := r.store.GetCustomer(ctx, active.ID)
	if err != nil {
		if err == core.ErrCustomerNotFound {
			return Result{Kind: KindNotFound, Query: active.Name}, nil
		}
		return Result{}, err
	}

	r.cacheSet(sessionID, *customer)
	return Result{Kind: KindResolved, Customer: customer}, nil
}

// searchCustomerRanked is the session-cache-aware variant of searchCustomer: it
// rescans the session's tracked-customer cache on a hit, otherwise delegates to
// the store's ranked search and warms the session cache with the result.
func (r *Resolver) searchCustomerRanked(ctx context.Context, shopID, sessionID, query string) (Result, error) {
	tracked, err := r.convStore.FindMatchingCustomers(ctx, sessionID, query, 0.7)
	if err != nil {
		return Result{}, fmt.Errorf("failed to search tracked customers: %w", err)
	}
	if len(tracked) > 0 && tracked[0].Match.Score >= 0.85 {
		id, _ := tracked[0].Candidate.Data.(int)
		customer, err := r.store.GetCustomer(ctx, id)
		if err == nil {
			return r.finalize(ctx, sessionID, *customer)
		}
	}

	matches, err := r.store.SearchCustomer(ctx, shopID, query)
	if err != nil {
		return Result{}, fmt.Errorf("failed to search customers: %w", err)
	}
	if len(matches) == 0 {
		return Result{Kind: KindNotFound, Query: query}, nil
	}

	if matches[0].MatchScore >= 0.85 || len(matches) == 1 {
		return r.finalize(ctx, sessionID, matches[0].Customer)
	}

	top := matches
	if len(top) > 3 {
		top = top[:3]
	}
	candidates := make([]Candidate, len(top))
	for i, m := range top {
		candidates[i] = Candidate{Customer: m.Customer, MatchScore: m.MatchScore}
	}
	return Result{Kind: KindMultiple, Candidates: candidates, Query: query}, nil
}

func (r *Resolver) finalize(ctx context.Context, sessionID string, c core.Customer) (Result, error) {
	r.cacheSet(sessionID, c)
	if err := r.convStore.SetActiveCustomer(ctx, sessionID, c.ID, c.Name); err != nil {
		return Result{}, fmt.Errorf("failed to persist active customer: %w", err)
	}
	return Result{Kind: KindResolved, Customer: &c}, nil
}
