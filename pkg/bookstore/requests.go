package bookstore

import (
	"io"
	"unicode/utf8"
)

// minDescriptionLen is the minimum description length enforced on create.
const minDescriptionLen = 10

// FileUpload is one asset to attach to a new book. Reader is consumed
// exactly once, in request order.
type FileUpload struct {
	Name        string
	ContentType string
	Reader      io.Reader
}

// CreateBookRequest contains parameters for creating a book.
type CreateBookRequest struct {
	Title       string
	Description string
	Price       int64
	Files       []FileUpload
}

// Validate checks the request before any I/O is performed.
func (r CreateBookRequest) Validate() error {
	if len(r.Files) == 0 {
		return &ValidationError{Field: "files", Reason: "at least one file is required"}
	}
	for _, f := range r.Files {
		if f.Name == "" {
			return &ValidationError{Field: "files", Reason: "file name must not be empty"}
		}
	}
	if r.Title == "" {
		return &ValidationError{Field: "title", Reason: "title must not be empty"}
	}
	if utf8.RuneCountInString(r.Description) < minDescriptionLen {
		return &ValidationError{Field: "description", Reason: "description must be at least 10 characters"}
	}
	if r.Price < 0 {
		return &ValidationError{Field: "price", Reason: "price must not be negative"}
	}
	return nil
}

// CreateBookResult reports a fully successful create.
type CreateBookResult struct {
	ID         string   `json:"id"`
	AssetNames []string `json:"files"`
}
