package bookstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// service implements the Service interface
type service struct {
	store    BlobStore
	verifier CredentialVerifier
	ledger   EntitlementLedger
	signTTL  time.Duration
	fanout   int

	catalog      *CatalogRepository
	entitlements *EntitlementService
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithBlobStore sets the storage backend the catalog lives in. Required.
func WithBlobStore(store BlobStore) Option {
	return func(s *service) {
		s.store = store
	}
}

// WithVerifier sets the credential verifier used to resolve viewer tokens.
// Without one, every request is treated as anonymous.
func WithVerifier(verifier CredentialVerifier) Option {
	return func(s *service) {
		s.verifier = verifier
	}
}

// WithLedger sets the entitlement ledger. Without one, summaries and
// details are never flagged as purchased.
func WithLedger(ledger EntitlementLedger) Option {
	return func(s *service) {
		s.ledger = ledger
	}
}

// WithSignTTL sets the validity window for signed asset URLs.
func WithSignTTL(ttl time.Duration) Option {
	return func(s *service) {
		s.signTTL = ttl
	}
}

// WithFanout bounds the parallelism of metadata loads and receipt checks.
func WithFanout(n int) Option {
	return func(s *service) {
		s.fanout = n
	}
}

// New creates a new service instance with the given options.
func New(options ...Option) (Service, error) {
	s := &service{
		signTTL: DefaultSignTTL,
		fanout:  DefaultFanout,
	}

	for _, option := range options {
		option(s)
	}

	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	s.catalog = NewCatalogRepository(s.store, s.signTTL, s.fanout)
	if s.ledger != nil {
		s.entitlements = NewEntitlementService(s.ledger, s.fanout)
	}

	return s, nil
}

func (s *service) ListCatalog(ctx context.Context, viewerToken string) ([]BookSummary, error) {
	books, err := s.catalog.ListBooks(ctx)
	if err != nil {
		return nil, err
	}

	viewer := s.resolveViewer(ctx, viewerToken)
	if viewer == nil || s.entitlements == nil {
		return books, nil
	}

	ids := make([]string, len(books))
	for i := range books {
		ids[i] = books[i].ID
	}
	owned := s.entitlements.CheckMany(ctx, ids, viewer.UserID)
	for i := range books {
		purchased := owned[books[i].ID]
		books[i].Purchased = &purchased
	}
	return books, nil
}

func (s *service) GetBook(ctx context.Context, id, viewerToken string) (*BookDetail, error) {
	detail, err := s.catalog.GetDetails(ctx, id)
	if err != nil {
		return nil, err
	}

	viewer := s.resolveViewer(ctx, viewerToken)
	if viewer != nil && s.entitlements != nil {
		purchased := s.entitlements.CheckOne(ctx, id, viewer.UserID)
		detail.Purchased = &purchased
	}
	return detail, nil
}

func (s *service) CreateBook(ctx context.Context, req CreateBookRequest) (*CreateBookResult, error) {
	return s.catalog.Create(ctx, req)
}

func (s *service) DeleteBook(ctx context.Context, id string) error {
	return s.catalog.Delete(ctx, id)
}

// resolveViewer turns a token into a viewer identity. An empty token,
// missing verifier, or failed verification all mean "anonymous": catalog
// reads still succeed, they just carry no purchased flags.
func (s *service) resolveViewer(ctx context.Context, token string) *Identity {
	if token == "" || s.verifier == nil {
		return nil
	}
	identity, err := s.verifier.Verify(ctx, token)
	if err != nil {
		slog.Debug("viewer token rejected", "error", err)
		return nil
	}
	return identity
}
