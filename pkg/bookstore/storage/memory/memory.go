package memory

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hondana/bookstore/pkg/bookstore"
)

// Backend is an in-memory implementation of the bookstore.BlobStore
// interface, intended for tests and local development.
type Backend struct {
	mu           sync.RWMutex
	objects      map[string][]byte
	contentTypes map[string]string
}

// New creates a new in-memory storage backend
func New() *Backend {
	return &Backend{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

var _ bookstore.BlobStore = (*Backend)(nil)

// List returns the immediate children of prefix: objects directly under it
// as files, deeper objects collapsed into their first path segment. Names
// are sorted, so order is stable per call.
func (b *Backend) List(ctx context.Context, prefix string) ([]bookstore.ObjectInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	p := strings.TrimSuffix(prefix, "/")
	if p != "" {
		p += "/"
	}

	files := make(map[string]int64)
	dirs := make(map[string]struct{})
	for key, data := range b.objects {
		if !strings.HasPrefix(key, p) {
			continue
		}
		rest := key[len(p):]
		if rest == "" {
			continue
		}
		if i := strings.Index(rest, "/"); i >= 0 {
			dirs[rest[:i]] = struct{}{}
		} else {
			files[rest] = int64(len(data))
		}
	}

	infos := make([]bookstore.ObjectInfo, 0, len(files)+len(dirs))
	for name := range dirs {
		infos = append(infos, bookstore.ObjectInfo{Name: name})
	}
	for name, size := range files {
		infos = append(infos, bookstore.ObjectInfo{Name: name, Size: size})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Download downloads content directly
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	data, exists := b.objects[objectKey]
	if !exists {
		return nil, bookstore.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Upload uploads content directly
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.objects[objectKey] = data
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	b.contentTypes[objectKey] = contentType
	return nil
}

// Remove deletes the given objects. Keys that do not exist are ignored,
// matching batch-delete semantics of bucket stores.
func (b *Backend) Remove(ctx context.Context, objectKeys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, key := range objectKeys {
		delete(b.objects, key)
		delete(b.contentTypes, key)
	}
	return nil
}

// SignURL returns a fake time-limited URL. Like a real presigner it does
// not check that the object exists; it only encodes the capability.
func (b *Backend) SignURL(ctx context.Context, objectKey string, expiresIn time.Duration) (string, error) {
	expiresAt := time.Now().Add(expiresIn).Unix()
	return fmt.Sprintf("memory://%s?expires=%d", objectKey, expiresAt), nil
}

// ContentType reports the stored content type of an object, for tests.
func (b *Backend) ContentType(objectKey string) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ct, ok := b.contentTypes[objectKey]
	return ct, ok
}
