// Package api exposes the catalog facade over HTTP. It does not authorize
// mutating calls; that is the access-control layer's job.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/hondana/bookstore/pkg/bookstore"
)

// maxUploadBytes caps the in-memory portion of a multipart create request.
const maxUploadBytes = 64 << 20

// BooksHandler handles HTTP requests for the catalog
type BooksHandler struct {
	service bookstore.Service
}

// NewBooksHandler creates a new catalog handler
func NewBooksHandler(service bookstore.Service) *BooksHandler {
	return &BooksHandler{service: service}
}

// Routes returns the routes for the catalog
func (h *BooksHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListBooks)
	r.Post("/", h.CreateBook)
	r.Get("/{id}", h.GetBook)
	r.Delete("/{id}", h.DeleteBook)

	return r
}

// ErrorResponse is the JSON body for failed requests. UploadedFiles is set
// on partial create failures so an operator can reconcile leftover objects.
type ErrorResponse struct {
	Error         string   `json:"error"`
	BookID        string   `json:"book_id,omitempty"`
	UploadedFiles []string `json:"uploaded_files,omitempty"`
}

// ListBooks lists the catalog, flagging purchases for a verified viewer.
func (h *BooksHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListCatalog(r.Context(), bearerToken(r))
	if err != nil {
		slog.Error("failed to list catalog", "error", err)
		renderError(w, r, http.StatusBadGateway, ErrorResponse{Error: "failed to list catalog"})
		return
	}
	render.JSON(w, r, books)
}

// GetBook returns one book with all assets signed.
func (h *BooksHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	detail, err := h.service.GetBook(r.Context(), id, bearerToken(r))
	if err != nil {
		if errors.Is(err, bookstore.ErrBookNotFound) {
			renderError(w, r, http.StatusNotFound, ErrorResponse{Error: "book not found", BookID: id})
			return
		}
		slog.Error("failed to get book", "book_id", id, "error", err)
		renderError(w, r, http.StatusBadGateway, ErrorResponse{Error: "failed to get book", BookID: id})
		return
	}
	render.JSON(w, r, detail)
}

// CreateBook creates a book from a multipart form carrying "files",
// "title", "description" and "price" fields.
func (h *BooksHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		renderError(w, r, http.StatusBadRequest, ErrorResponse{Error: "expected multipart form data"})
		return
	}

	priceStr := r.FormValue("price")
	price, err := strconv.ParseInt(priceStr, 10, 64)
	if priceStr == "" || err != nil {
		renderError(w, r, http.StatusBadRequest, ErrorResponse{Error: "price must be an integer"})
		return
	}

	headers := r.MultipartForm.File["files"]
	files := make([]bookstore.FileUpload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			renderError(w, r, http.StatusBadRequest, ErrorResponse{Error: "unreadable file: " + fh.Filename})
			return
		}
		defer f.Close()
		files = append(files, bookstore.FileUpload{
			// Base name only: clients must not steer the storage path.
			Name:        filepath.Base(fh.Filename),
			ContentType: fh.Header.Get("Content-Type"),
			Reader:      f,
		})
	}

	result, err := h.service.CreateBook(r.Context(), bookstore.CreateBookRequest{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Price:       price,
		Files:       files,
	})
	if err != nil {
		h.renderCreateError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

func (h *BooksHandler) renderCreateError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *bookstore.ValidationError
	if errors.As(err, &validationErr) {
		renderError(w, r, http.StatusBadRequest, ErrorResponse{Error: validationErr.Error()})
		return
	}

	var uploadErr *bookstore.UploadError
	if errors.As(err, &uploadErr) {
		slog.Error("asset upload failed", "book_id", uploadErr.BookID, "file", uploadErr.FileName, "error", err)
		renderError(w, r, http.StatusBadGateway, ErrorResponse{
			Error:         "upload failed for " + uploadErr.FileName,
			BookID:        uploadErr.BookID,
			UploadedFiles: uploadErr.Uploaded,
		})
		return
	}

	var metaErr *bookstore.MetadataError
	if errors.As(err, &metaErr) {
		slog.Error("metadata upload failed", "book_id", metaErr.BookID, "error", err)
		renderError(w, r, http.StatusBadGateway, ErrorResponse{
			Error:         "metadata upload failed",
			BookID:        metaErr.BookID,
			UploadedFiles: metaErr.Uploaded,
		})
		return
	}

	slog.Error("failed to create book", "error", err)
	renderError(w, r, http.StatusInternalServerError, ErrorResponse{Error: "failed to create book"})
}

// DeleteBook removes a book and everything under its prefix. Deleting an
// id with nothing left under it succeeds, so the call is retryable.
func (h *BooksHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		var deleteErr *bookstore.DeleteError
		if errors.As(err, &deleteErr) {
			slog.Error("batch delete failed", "book_id", id, "objects", len(deleteErr.Keys), "error", err)
			renderError(w, r, http.StatusBadGateway, ErrorResponse{
				Error:  "delete failed; store state is unknown",
				BookID: id,
			})
			return
		}
		slog.Error("failed to delete book", "book_id", id, "error", err)
		renderError(w, r, http.StatusBadGateway, ErrorResponse{Error: "failed to delete book", BookID: id})
		return
	}

	render.NoContent(w, r)
}

func renderError(w http.ResponseWriter, r *http.Request, status int, body ErrorResponse) {
	render.Status(r, status)
	render.JSON(w, r, body)
}

// bearerToken extracts the viewer token from the Authorization header.
// Absent or malformed headers mean an anonymous viewer, not an error.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	header := r.Header.Get("Authorization")
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
