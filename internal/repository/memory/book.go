package memory

import (
	"context"
	"sync"

	"bookapi/internal/model"
	"bookapi/internal/repository"
)

// BookMemory is an in-memory repository.BookRepository. It stores copies so
// callers never share state with the store.
type BookMemory struct {
	mu    sync.RWMutex
	books map[string]*model.Book
}

// NewBookMemory creates an empty BookMemory.
func NewBookMemory() *BookMemory {
	return &BookMemory{books: make(map[string]*model.Book)}
}

var _ repository.BookRepository = (*BookMemory)(nil)

func (r *BookMemory) FindByID(ctx context.Context, id string) (*model.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.books[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return b.Clone(), nil
}

func (r *BookMemory) Save(ctx context.Context, book *model.Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.books[book.ID] = book.Clone()
	return nil
}

func (r *BookMemory) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.books, id)
	return nil
}
