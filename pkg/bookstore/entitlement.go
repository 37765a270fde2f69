package bookstore

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// EntitlementService answers "has this user purchased this book" against
// the receipt ledger. Every lookup failure degrades to false: the service
// never claims an entitlement it cannot confirm, and never surfaces ledger
// errors to its callers.
type EntitlementService struct {
	ledger EntitlementLedger
	fanout int
}

// NewEntitlementService creates the service. A non-positive fanout falls
// back to DefaultFanout.
func NewEntitlementService(ledger EntitlementLedger, fanout int) *EntitlementService {
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &EntitlementService{ledger: ledger, fanout: fanout}
}

// CheckOne reports whether a receipt exists for (bookID, userID).
// Lookup errors are logged and reported as not entitled.
func (s *EntitlementService) CheckOne(ctx context.Context, bookID, userID string) bool {
	ok, err := s.ledger.HasReceipt(ctx, bookID, userID)
	if err != nil {
		slog.Warn("receipt lookup failed, treating as not entitled",
			"book_id", bookID, "user_id", userID, "error", err)
		return false
	}
	return ok
}

// CheckMany checks every book id with bounded parallelism and returns a
// per-id map. One id's lookup failure never blocks or taints the others.
func (s *EntitlementService) CheckMany(ctx context.Context, bookIDs []string, userID string) map[string]bool {
	results := make([]bool, len(bookIDs))
	var g errgroup.Group
	g.SetLimit(s.fanout)
	for i, id := range bookIDs {
		i, id := i, id
		g.Go(func() error {
			results[i] = s.CheckOne(ctx, id, userID)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]bool, len(bookIDs))
	for i, id := range bookIDs {
		out[id] = results[i]
	}
	return out
}
