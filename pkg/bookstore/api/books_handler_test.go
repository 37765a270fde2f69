package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hondana/bookstore/pkg/bookstore"
	"github.com/hondana/bookstore/pkg/bookstore/api"
	"github.com/hondana/bookstore/pkg/bookstore/auth"
	ledgermemory "github.com/hondana/bookstore/pkg/bookstore/ledger/memory"
	"github.com/hondana/bookstore/pkg/bookstore/storage/memory"
)

type testEnv struct {
	server   *httptest.Server
	ledger   *ledgermemory.Ledger
	verifier *auth.JWTVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ledger := ledgermemory.New()
	verifier := auth.NewJWTVerifier([]byte("test-secret"))

	svc, err := bookstore.New(
		bookstore.WithBlobStore(memory.New()),
		bookstore.WithLedger(ledger),
		bookstore.WithVerifier(verifier),
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount("/api/v1/books", api.NewBooksHandler(svc).Routes())

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)

	return &testEnv{server: server, ledger: ledger, verifier: verifier}
}

// multipartBody builds a create-book form with one dummy PNG per file name.
func multipartBody(t *testing.T, title, description, price string, fileNames ...string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", description))
	require.NoError(t, w.WriteField("price", price))
	for _, name := range fileNames {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("png-bytes-" + name))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func (e *testEnv) createBook(t *testing.T, fileNames ...string) string {
	t.Helper()

	body, contentType := multipartBody(t, "Go in Production", "a long enough description", "500", fileNames...)
	resp, err := http.Post(e.server.URL+"/api/v1/books", contentType, body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result bookstore.CreateBookResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result.ID
}

func TestCreateAndGetBook(t *testing.T) {
	env := newTestEnv(t)

	id := env.createBook(t, "a.png", "b.png")
	assert.Equal(t, "book1", id)

	resp, err := http.Get(env.server.URL + "/api/v1/books/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var detail bookstore.BookDetail
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
	assert.Equal(t, "Go in Production", detail.Title)
	assert.Equal(t, int64(500), detail.Price)
	assert.Len(t, detail.ImageURLs, 2)
	assert.Nil(t, detail.Purchased)
}

func TestListBooks(t *testing.T) {
	env := newTestEnv(t)

	env.createBook(t, "a.png")
	env.createBook(t, "b.png")

	resp, err := http.Get(env.server.URL + "/api/v1/books")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var books []bookstore.BookSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&books))
	require.Len(t, books, 2)
	for _, b := range books {
		assert.NotEmpty(t, b.ImageURL)
		assert.Nil(t, b.Purchased)
	}
}

func TestListBooksWithViewer(t *testing.T) {
	env := newTestEnv(t)

	id := env.createBook(t, "a.png")
	env.createBook(t, "b.png")
	env.ledger.Grant(id, "u1")

	token, err := env.verifier.Issue("u1", time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/v1/books", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var books []bookstore.BookSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&books))
	require.Len(t, books, 2)
	for _, b := range books {
		require.NotNil(t, b.Purchased)
		assert.Equal(t, b.ID == id, *b.Purchased)
	}
}

func TestGetBookNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/api/v1/books/book42")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateBookValidation(t *testing.T) {
	env := newTestEnv(t)

	t.Run("short description", func(t *testing.T) {
		body, contentType := multipartBody(t, "T", "short", "500", "a.png")
		resp, err := http.Post(env.server.URL+"/api/v1/books", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var errResp api.ErrorResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
		assert.Contains(t, errResp.Error, "description")
	})

	t.Run("non-numeric price", func(t *testing.T) {
		body, contentType := multipartBody(t, "T", "a long enough description", "free", "a.png")
		resp, err := http.Post(env.server.URL+"/api/v1/books", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("no files", func(t *testing.T) {
		body, contentType := multipartBody(t, "T", "a long enough description", "500")
		resp, err := http.Post(env.server.URL+"/api/v1/books", contentType, body)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestDeleteBookIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	id := env.createBook(t, "a.png")

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest(http.MethodDelete, env.server.URL+"/api/v1/books/"+id, nil)
		require.NoError(t, err)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	resp, err := http.Get(env.server.URL + "/api/v1/books/" + id)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
