package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// BookPostgres is a PostgreSQL implementation of repository.BookRepository.
// A book and its contents are stored as one JSONB document.
type BookPostgres struct {
	db *sql.DB
}

// NewBookPostgres creates a new BookPostgres repository.
func NewBookPostgres(db *sql.DB) *BookPostgres {
	return &BookPostgres{db: db}
}

var _ repository.BookRepository = (*BookPostgres)(nil)

// FindByID loads a book document by id.
func (r *BookPostgres) FindByID(ctx context.Context, id string) (*model.Book, error) {
	const q = `SELECT data FROM books WHERE id = $1`

	var data []byte
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var b model.Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode book %s: %w", id, err)
	}
	return &b, nil
}

// Save upserts the whole book document.
func (r *BookPostgres) Save(ctx context.Context, book *model.Book) error {
	const q = `
		INSERT INTO books (id, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`
	data, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("encode book %s: %w", book.ID, err)
	}
	_, err = r.db.ExecContext(ctx, q, book.ID, data)
	return err
}

// Delete removes a book by id. It does not return an error if the row does not exist.
func (r *BookPostgres) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM books WHERE id = $1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}
