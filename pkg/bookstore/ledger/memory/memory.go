// Package memory provides an in-memory entitlement ledger for development
// and tests.
package memory

import (
	"context"
	"sync"

	"github.com/hondana/bookstore/pkg/bookstore"
)

// Ledger records receipts in process memory.
type Ledger struct {
	mu       sync.RWMutex
	receipts map[string]map[string]struct{} // bookID -> set of userIDs
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{receipts: make(map[string]map[string]struct{})}
}

var _ bookstore.EntitlementLedger = (*Ledger)(nil)

// Grant materializes a receipt for (bookID, userID).
func (l *Ledger) Grant(bookID, userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, ok := l.receipts[bookID]
	if !ok {
		users = make(map[string]struct{})
		l.receipts[bookID] = users
	}
	users[userID] = struct{}{}
}

// HasReceipt reports whether a receipt exists for (bookID, userID).
func (l *Ledger) HasReceipt(ctx context.Context, bookID, userID string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	users, ok := l.receipts[bookID]
	if !ok {
		return false, nil
	}
	_, ok = users[userID]
	return ok, nil
}
