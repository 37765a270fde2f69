// Package postgres backs the entitlement ledger with a receipts table:
//
//	CREATE TABLE receipts (
//	    id      UUID PRIMARY KEY,
//	    book_id TEXT NOT NULL,
//	    user_id TEXT NOT NULL,
//	    UNIQUE (book_id, user_id)
//	);
//
// Schema migrations are managed outside this module.
package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hondana/bookstore/pkg/bookstore"
)

// Ledger reads and writes purchase receipts in PostgreSQL.
type Ledger struct {
	pool *pgxpool.Pool
}

// New creates a ledger over an existing connection pool.
func New(pool *pgxpool.Pool) *Ledger {
	return &Ledger{pool: pool}
}

// NewFromURL connects a pool from a connection string and verifies it.
func NewFromURL(ctx context.Context, databaseURL string) (*Ledger, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Ledger{pool: pool}, nil
}

var _ bookstore.EntitlementLedger = (*Ledger)(nil)

// HasReceipt reports whether a receipt exists for (bookID, userID).
func (l *Ledger) HasReceipt(ctx context.Context, bookID, userID string) (bool, error) {
	var exists bool
	err := l.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM receipts WHERE book_id = $1 AND user_id = $2)`,
		bookID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("receipt lookup failed: %w", err)
	}
	return exists, nil
}

// RecordReceipt materializes a receipt. Recording the same purchase twice
// is a no-op, so payment hooks can retry safely.
func (l *Ledger) RecordReceipt(ctx context.Context, bookID, userID string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO receipts (id, book_id, user_id) VALUES ($1, $2, $3)
		 ON CONFLICT (book_id, user_id) DO NOTHING`,
		uuid.New(), bookID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to record receipt: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (l *Ledger) Close() {
	l.pool.Close()
}
