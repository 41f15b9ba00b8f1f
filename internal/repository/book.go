package repository

import (
	"context"

	"bookapi/internal/model"
)

// BookRepository persists books as whole documents, contents included.
type BookRepository interface {
	// FindByID returns the book or ErrNotFound.
	FindByID(ctx context.Context, id string) (*model.Book, error)

	// Save inserts or replaces the book document.
	Save(ctx context.Context, book *model.Book) error

	// Delete removes the book. It returns nil if the book did not exist.
	Delete(ctx context.Context, id string) error
}
