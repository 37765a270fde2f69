package bookstore

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrBookNotFound indicates a book prefix has no parseable metadata document
	ErrBookNotFound = errors.New("book not found")

	// ErrObjectNotFound indicates an object was not found in the blob store
	ErrObjectNotFound = errors.New("object not found")

	// ErrTokenInvalid indicates a session token failed verification
	ErrTokenInvalid = errors.New("invalid session token")

	// ErrTokenExpired indicates a session token is past its expiry
	ErrTokenExpired = errors.New("session token expired")
)

// ValidationError reports bad input rejected before any I/O was performed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StorageError represents a transport or backend failure on a read-side
// store operation (list, download, sign).
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage operation %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// UploadError reports a failed asset upload mid-create. Uploaded lists the
// files written before the failure; they are left in place for the caller
// to retry or reconcile, no rollback is attempted.
type UploadError struct {
	BookID   string
	FileName string
	Uploaded []string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %q failed for %s (already uploaded: %v): %v",
		e.FileName, e.BookID, e.Uploaded, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// MetadataError reports a metadata document upload that failed after all
// asset uploads succeeded, leaving the listed assets orphaned under the
// book's prefix.
type MetadataError struct {
	BookID   string
	Uploaded []string
	Err      error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("metadata upload failed for %s (orphaned assets: %v): %v",
		e.BookID, e.Uploaded, e.Err)
}

func (e *MetadataError) Unwrap() error {
	return e.Err
}

// DeleteError reports a batch delete that the store rejected. Keys lists
// every object the delete targeted; the store does not say which subset,
// if any, was removed.
type DeleteError struct {
	BookID string
	Keys   []string
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete failed for %s (%d objects): %v", e.BookID, len(e.Keys), e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}
