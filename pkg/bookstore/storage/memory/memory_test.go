package memory_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/bookstore/pkg/bookstore"
	"github.com/hondana/bookstore/pkg/bookstore/storage/memory"
)

func TestUploadDownloadRoundtrip(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	err := backend.Upload(ctx, "book1/a.png", strings.NewReader("payload"), "image/png")
	require.NoError(t, err)

	rc, err := backend.Download(ctx, "book1/a.png")
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	ct, ok := backend.ContentType("book1/a.png")
	require.True(t, ok)
	assert.Equal(t, "image/png", ct)
}

func TestDownloadNotFound(t *testing.T) {
	backend := memory.New()

	_, err := backend.Download(context.Background(), "missing")
	assert.ErrorIs(t, err, bookstore.ErrObjectNotFound)
}

func TestListImmediateChildren(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	for _, key := range []string{
		"book1/metadata.json",
		"book1/a.png",
		"book2/metadata.json",
		"root.txt",
	} {
		require.NoError(t, backend.Upload(ctx, key, strings.NewReader("x"), ""))
	}

	t.Run("root collapses prefixes", func(t *testing.T) {
		entries, err := backend.List(ctx, "")
		require.NoError(t, err)

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"book1", "book2", "root.txt"}, names)
	})

	t.Run("prefix lists files", func(t *testing.T) {
		entries, err := backend.List(ctx, "book1")
		require.NoError(t, err)

		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name)
		}
		assert.Equal(t, []string{"a.png", "metadata.json"}, names)
	})

	t.Run("empty prefix yields empty list", func(t *testing.T) {
		entries, err := backend.List(ctx, "book9")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestRemoveIgnoresMissingKeys(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "book1/a.png", strings.NewReader("x"), ""))

	err := backend.Remove(ctx, []string{"book1/a.png", "book1/never-existed.png"})
	require.NoError(t, err)

	_, err = backend.Download(ctx, "book1/a.png")
	assert.ErrorIs(t, err, bookstore.ErrObjectNotFound)
}

func TestSignURL(t *testing.T) {
	backend := memory.New()

	url, err := backend.SignURL(context.Background(), "book1/a.png", time.Hour)
	require.NoError(t, err)
	assert.Contains(t, url, "book1/a.png")
	assert.Contains(t, url, "expires=")
}
