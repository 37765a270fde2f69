package bookstore

import "context"

// Service is the only entry point presentation code uses. It wraps the
// catalog repository and the entitlement service: read paths merge
// purchased flags for a verified viewer, mutating paths pass through to
// the repository. Authorization of mutating calls is the access-control
// layer's job, not this facade's.
type Service interface {
	// ListCatalog lists the catalog. When viewerToken verifies, each
	// summary carries a purchased flag; otherwise summaries are unflagged.
	// An entitlement outage never fails an otherwise-good listing.
	ListCatalog(ctx context.Context, viewerToken string) ([]BookSummary, error)

	// GetBook returns one book with all assets signed, analogous to
	// ListCatalog with respect to the viewer.
	GetBook(ctx context.Context, id, viewerToken string) (*BookDetail, error)

	// CreateBook creates a catalog entry with its assets.
	CreateBook(ctx context.Context, req CreateBookRequest) (*CreateBookResult, error)

	// DeleteBook removes a book and all objects under its prefix.
	DeleteBook(ctx context.Context, id string) error
}
