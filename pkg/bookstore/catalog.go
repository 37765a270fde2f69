package bookstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Defaults for the catalog repository.
const (
	DefaultSignTTL = time.Hour
	DefaultFanout  = 8
)

// bookIDPattern matches book prefixes: "book" followed by decimal digits.
var bookIDPattern = regexp.MustCompile(`^book([0-9]+)$`)

// CatalogRepository maps the blob store's folder-per-book layout to catalog
// entities. It is the sole writer of book records. A book exists iff its
// prefix holds a parseable metadata document; prefixes with assets but no
// valid metadata are treated as corrupt and skipped on reads.
type CatalogRepository struct {
	store   BlobStore
	signTTL time.Duration
	fanout  int
}

// NewCatalogRepository creates a repository over the given store. Zero
// values for signTTL and fanout fall back to DefaultSignTTL and
// DefaultFanout.
func NewCatalogRepository(store BlobStore, signTTL time.Duration, fanout int) *CatalogRepository {
	if signTTL <= 0 {
		signTTL = DefaultSignTTL
	}
	if fanout <= 0 {
		fanout = DefaultFanout
	}
	return &CatalogRepository{store: store, signTTL: signTTL, fanout: fanout}
}

// ListBooks enumerates the top-level book prefixes and loads each metadata
// document with bounded parallelism. Entries whose metadata is missing or
// malformed are logged and dropped; one bad entry never fails the listing.
// Result order follows the store's listing order for this call.
func (r *CatalogRepository) ListBooks(ctx context.Context) ([]BookSummary, error) {
	entries, err := r.store.List(ctx, "")
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		// Skip placeholder objects such as .emptyFolderPlaceholder.
		if e.Name == "" || strings.HasPrefix(e.Name, ".") {
			continue
		}
		ids = append(ids, e.Name)
	}

	summaries := make([]*BookSummary, len(ids))
	var g errgroup.Group
	g.SetLimit(r.fanout)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			meta, err := r.loadMetadata(ctx, id)
			if err != nil {
				slog.Warn("skipping catalog entry", "book_id", id, "error", err)
				return nil
			}
			s := &BookSummary{ID: id, Title: meta.Title, Price: meta.Price}
			if len(meta.Images) > 0 {
				asset, err := r.signAsset(ctx, id, meta.Images[0])
				if err != nil {
					slog.Warn("could not sign cover image", "book_id", id, "image", meta.Images[0], "error", err)
				} else {
					s.ImageURL = asset.URL
				}
			}
			summaries[i] = s
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	out := make([]BookSummary, 0, len(summaries))
	for _, s := range summaries {
		if s != nil {
			out = append(out, *s)
		}
	}
	return out, nil
}

// GetDetails loads a single book and signs every asset it declares.
// Assets that fail to sign are dropped individually rather than failing
// the call. A missing or unparsable metadata document is ErrBookNotFound.
func (r *CatalogRepository) GetDetails(ctx context.Context, id string) (*BookDetail, error) {
	meta, err := r.loadMetadata(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBookNotFound, id)
	}

	detail := &BookDetail{
		ID:          id,
		Title:       meta.Title,
		Description: meta.Description,
		Price:       meta.Price,
		ImageURLs:   make([]string, 0, len(meta.Images)),
	}
	for _, img := range meta.Images {
		asset, err := r.signAsset(ctx, id, img)
		if err != nil {
			slog.Warn("dropping unsignable image", "book_id", id, "image", img, "error", err)
			continue
		}
		detail.ImageURLs = append(detail.ImageURLs, asset.URL)
	}
	return detail, nil
}

// Create validates the request, allocates the next book id, uploads the
// assets sequentially (upload order defines AssetNames order, and the
// first asset is the cover), then writes the metadata document last.
//
// Failures are not rolled back: an UploadError or MetadataError reports
// exactly which files were already written so an operator can reconcile.
func (r *CatalogRepository) Create(ctx context.Context, req CreateBookRequest) (*CreateBookResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id, err := r.nextBookID(ctx)
	if err != nil {
		return nil, err
	}

	uploaded := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		ct := f.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		if err := r.store.Upload(ctx, id+"/"+f.Name, f.Reader, ct); err != nil {
			return nil, &UploadError{BookID: id, FileName: f.Name, Uploaded: uploaded, Err: err}
		}
		uploaded = append(uploaded, f.Name)
	}

	meta := BookMetadata{
		ID:          id,
		Images:      uploaded,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return nil, &MetadataError{BookID: id, Uploaded: uploaded, Err: err}
	}
	if err := r.store.Upload(ctx, id+"/"+MetadataFilename, bytes.NewReader(payload), "application/json"); err != nil {
		return nil, &MetadataError{BookID: id, Uploaded: uploaded, Err: err}
	}

	slog.Info("book created", "book_id", id, "assets", len(uploaded))
	return &CreateBookResult{ID: id, AssetNames: uploaded}, nil
}

// Delete removes every object under the book's prefix in one batch call.
// Deleting an id with nothing under it is a no-op success, so retrying a
// delete is safe. A rejected batch is reported as a DeleteError; the store
// does not say which subset was removed.
func (r *CatalogRepository) Delete(ctx context.Context, id string) error {
	entries, err := r.store.List(ctx, id)
	if err != nil {
		return &StorageError{Op: "list", Key: id, Err: err}
	}
	if len(entries) == 0 {
		slog.Info("nothing to delete under prefix", "book_id", id)
		return nil
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, id+"/"+e.Name)
	}
	if err := r.store.Remove(ctx, keys); err != nil {
		return &DeleteError{BookID: id, Keys: keys, Err: err}
	}

	slog.Info("book deleted", "book_id", id, "objects", len(keys))
	return nil
}

// nextBookID scans the existing prefixes and returns "book<max+1>", or
// "book1" for an empty catalog. Allocation is intentionally not
// serialized: two concurrent creates can compute the same id and collide.
func (r *CatalogRepository) nextBookID(ctx context.Context) (string, error) {
	entries, err := r.store.List(ctx, "")
	if err != nil {
		return "", &StorageError{Op: "list", Err: err}
	}

	max := 0
	for _, e := range entries {
		m := bookIDPattern.FindStringSubmatch(e.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n <= 0 {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("book%d", max+1), nil
}

func (r *CatalogRepository) loadMetadata(ctx context.Context, id string) (*BookMetadata, error) {
	rc, err := r.store.Download(ctx, id+"/"+MetadataFilename)
	if err != nil {
		return nil, fmt.Errorf("download metadata: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	var meta BookMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("parse metadata: %w", err)
	}
	return &meta, nil
}

func (r *CatalogRepository) signAsset(ctx context.Context, id, name string) (*SignedAsset, error) {
	key := id + "/" + name
	url, err := r.store.SignURL(ctx, key, r.signTTL)
	if err != nil {
		return nil, &StorageError{Op: "sign", Key: key, Err: err}
	}
	return &SignedAsset{URL: url, ExpiresAt: time.Now().Add(r.signTTL)}, nil
}
