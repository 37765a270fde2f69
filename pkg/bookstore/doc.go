// Package bookstore turns a bucket-style object store into a listable,
// mutable catalog of purchasable books with per-user entitlement checks.
//
// Each book lives under its own storage prefix ("book1/", "book2/", ...)
// holding the binary assets plus a metadata.json document. The catalog
// repository owns id allocation, listing, detail retrieval, creation and
// deletion over that layout; the entitlement service cross-references a
// verified viewer identity against a receipt ledger and fails closed on
// any lookup error. The Service facade combines the two so presentation
// code never talks to either subsystem directly.
//
// Asset access is never public: every read path issues fresh time-limited
// signed URLs through the configured BlobStore.
package bookstore
