package fs

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hondana/bookstore/pkg/bookstore"
)

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // URL prefix signed URLs are issued under
	SecretKey string // HMAC key for signing URLs
}

// Backend is a filesystem implementation of the bookstore.BlobStore
// interface. Signed URLs carry an HMAC-SHA256 signature and expiry as
// query parameters; the delivery layer validating them must use the same
// payload format (see signaturePayload).
type Backend struct {
	baseDir   string
	urlPrefix string
	secret    []byte
}

// New creates a new filesystem storage backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}
	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: strings.TrimSuffix(config.URLPrefix, "/"),
		secret:    []byte(config.SecretKey),
	}, nil
}

var _ bookstore.BlobStore = (*Backend)(nil)

// List returns the immediate children of prefix. A directory that does
// not exist yields an empty listing, not an error.
func (b *Backend) List(ctx context.Context, prefix string) ([]bookstore.ObjectInfo, error) {
	dir := filepath.Join(b.baseDir, filepath.FromSlash(prefix))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return []bookstore.ObjectInfo{}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	infos := make([]bookstore.ObjectInfo, 0, len(entries))
	for _, e := range entries {
		info := bookstore.ObjectInfo{Name: e.Name()}
		if !e.IsDir() {
			if fi, err := e.Info(); err == nil {
				info.Size = fi.Size()
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// Download downloads content directly from the filesystem
func (b *Backend) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	file, err := os.Open(filepath.Join(b.baseDir, filepath.FromSlash(objectKey)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, bookstore.ErrObjectNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Upload uploads content directly to the filesystem. The content type is
// not stored; it is detected on read by whoever serves the file.
func (b *Backend) Upload(ctx context.Context, objectKey string, reader io.Reader, contentType string) error {
	filePath := filepath.Join(b.baseDir, filepath.FromSlash(objectKey))

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Remove deletes the given objects. Missing files are ignored. Emptied
// directories are cleaned up so deleted books leave no husk behind.
func (b *Backend) Remove(ctx context.Context, objectKeys []string) error {
	for _, key := range objectKeys {
		filePath := filepath.Join(b.baseDir, filepath.FromSlash(key))
		if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		b.cleanupEmptyDirectories(filepath.Dir(filePath))
	}
	return nil
}

// SignURL issues an HMAC-signed, expiring URL for the object.
func (b *Backend) SignURL(ctx context.Context, objectKey string, expiresIn time.Duration) (string, error) {
	if b.urlPrefix == "" {
		return "", errors.New("url prefix is required for signed urls")
	}
	if len(b.secret) == 0 {
		return "", errors.New("secret key is required for signed urls")
	}

	expiresAt := time.Now().Add(expiresIn).Unix()
	signature := b.sign(signaturePayload(objectKey, expiresAt))
	return fmt.Sprintf("%s/%s?expires=%d&signature=%s", b.urlPrefix, objectKey, expiresAt, signature), nil
}

// Validate checks a signature and expiry as extracted from a signed URL's
// query parameters. The delivery layer calls this before serving a file.
func (b *Backend) Validate(objectKey, signature string, expiresAt int64) error {
	if time.Now().Unix() > expiresAt {
		return errors.New("signed url expired")
	}
	expected := b.sign(signaturePayload(objectKey, expiresAt))
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return errors.New("invalid signature")
	}
	return nil
}

func signaturePayload(objectKey string, expiresAt int64) string {
	return fmt.Sprintf("GET|%s|%d", objectKey, expiresAt)
}

func (b *Backend) sign(payload string) string {
	h := hmac.New(sha256.New, b.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}

// cleanupEmptyDirectories recursively removes empty directories up to baseDir
func (b *Backend) cleanupEmptyDirectories(dir string) {
	if dir == b.baseDir {
		return
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if os.Remove(dir) == nil {
			b.cleanupEmptyDirectories(filepath.Dir(dir))
		}
	}
}
