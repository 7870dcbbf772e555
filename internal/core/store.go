package core

import (
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the ledger/inventory store (component D). It is a single type with
// methods spread across this package's files by concern (customers, invoices,
// ledger, reminders, reporting), mirroring the teacher's orderService/
// inventoryService split but unified behind one injectable handle per §9's
// "dependency-injected handles passed through a shared context" redesign note.
type Store struct {
	pool *pgxpool.Pool

	balanceCacheMu sync.Mutex
	balanceCache   map[int]balanceCacheEntry
}

type balanceCacheEntry struct {
	balance   string
	expiresAt time.Time
}

const balanceCacheTTL = 30 * time.Second

// NewStore constructs a Store backed by pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:         pool,
		balanceCache: make(map[int]balanceCacheEntry),
	}
}

// invalidateBalanceCache drops any cached balance for a customer. Called by
// every mutation that can change a customer's balance.
func (s *Store) invalidateBalanceCache(customerID int) {
	s.balanceCacheMu.Lock()
	delete(s.balanceCache, customerID)
	s.balanceCacheMu.Unlock()
}
