package bookstore

import "time"

// MetadataFilename is the object name of the per-book metadata document.
const MetadataFilename = "metadata.json"

// Book is the unit of sale. It is materialized from a storage prefix: the
// prefix name is the id, the metadata document carries the rest, and
// AssetNames lists the binary objects under the prefix in upload order.
// The first asset name is the cover image.
type Book struct {
	ID          string
	Title       string
	Description string
	Price       int64
	AssetNames  []string
}

// BookMetadata is the persisted shape of <id>/metadata.json.
type BookMetadata struct {
	ID          string   `json:"id"`
	Images      []string `json:"images"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
}

// BookSummary is a catalog listing row. ImageURL is a signed URL for the
// cover image, empty when the cover could not be signed. Purchased is set
// only when the request carried a verified viewer.
type BookSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	ImageURL  string `json:"image_url"`
	Purchased *bool  `json:"purchased,omitempty"`
}

// BookDetail is the full view of a single book. ImageURLs holds one signed
// URL per asset that could be signed, preserving upload order.
type BookDetail struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	ImageURLs   []string `json:"image_urls"`
	Purchased   *bool    `json:"purchased,omitempty"`
}

// SignedAsset is a time-limited capability URL for one private object.
// It is derived on demand and never persisted; the URL stays valid until
// ExpiresAt regardless of later catalog mutations.
type SignedAsset struct {
	URL       string
	ExpiresAt time.Time
}

// Identity is a verified viewer, as returned by a CredentialVerifier.
type Identity struct {
	UserID string
}
