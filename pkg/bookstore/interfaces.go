package bookstore

import (
	"context"
	"io"
	"time"
)

// ObjectInfo describes one entry returned by BlobStore.List: a file or a
// sub-prefix immediately under the listed prefix. Name is the base name
// relative to the prefix, never a full key.
type ObjectInfo struct {
	Name string
	Size int64
}

// BlobStore defines the interface for bucket-style storage backends.
type BlobStore interface {
	// List returns the immediate children of prefix. Listing the empty
	// prefix yields the top-level entries (the book prefixes). A prefix
	// with nothing under it yields an empty slice, not an error. Order is
	// stable within a single call but not guaranteed across calls.
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	// Download returns the object's content. Missing objects are reported
	// as ErrObjectNotFound.
	Download(ctx context.Context, objectKey string) (io.ReadCloser, error)

	// Upload writes the object, overwriting any existing content.
	Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error

	// Remove deletes the given objects in one batch. Keys that no longer
	// exist are not an error.
	Remove(ctx context.Context, objectKeys []string) error

	// SignURL issues a time-limited read URL for the object.
	SignURL(ctx context.Context, objectKey string, expiresIn time.Duration) (string, error)
}

// CredentialVerifier resolves an opaque session token to a verified
// identity. Failures distinguish ErrTokenExpired from ErrTokenInvalid so
// callers can report them differently; both mean "no viewer".
type CredentialVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// EntitlementLedger answers whether a purchase receipt exists for a
// (book, user) pair. Absence of a receipt means not entitled; no "false"
// record is ever materialized.
type EntitlementLedger interface {
	HasReceipt(ctx context.Context, bookID, userID string) (bool, error)
}
