package mocks

import (
	"context"

	"bookapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockBookManager struct {
	mock.Mock
}

func (m *MockBookManager) Get(ctx context.Context, id string) (*model.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookManager) GetContent(ctx context.Context, id string, contentID int64) (*model.BookContent, error) {
	args := m.Called(ctx, id, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookContent), args.Error(1)
}

func (m *MockBookManager) ListSnapshots(ctx context.Context, id string, start, count int, chronological bool) ([]model.Snapshot[model.Book], error) {
	args := m.Called(ctx, id, start, count, chronological)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Snapshot[model.Book]), args.Error(1)
}

func (m *MockBookManager) GetSnapshot(ctx context.Context, id, snapshotID string) (*model.Snapshot[model.Book], error) {
	args := m.Called(ctx, id, snapshotID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snapshot[model.Book]), args.Error(1)
}

func (m *MockBookManager) Create(ctx context.Context, book model.BookCreate, content model.BookContentCreate, actor model.Actor) (*model.Book, error) {
	args := m.Called(ctx, book, content, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookManager) Update(ctx context.Context, id string, update model.BookUpdate, actor model.Actor) (*model.Book, error) {
	args := m.Called(ctx, id, update, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookManager) Delete(ctx context.Context, id string, actor model.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockBookManager) Revert(ctx context.Context, id, snapshotID string, actor model.Actor) (*model.Book, error) {
	args := m.Called(ctx, id, snapshotID, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Book), args.Error(1)
}

func (m *MockBookManager) AddContent(ctx context.Context, id string, content model.BookContentCreate, actor model.Actor) (*model.Book, *model.BookContent, error) {
	args := m.Called(ctx, id, content, actor)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*model.Book), args.Get(1).(*model.BookContent), args.Error(2)
}

// LockContent runs fn with the content returned by the expectation, unless it returns an error.
func (m *MockBookManager) LockContent(ctx context.Context, id string, contentID int64, fn func(ctx context.Context, content model.BookContent) error) error {
	args := m.Called(ctx, id, contentID)
	if err := args.Error(1); err != nil {
		return err
	}
	return fn(ctx, args.Get(0).(model.BookContent))
}

func (m *MockBookManager) UpdateContent(ctx context.Context, id string, contentID int64, update model.BookContentUpdate, actor model.Actor) (*model.BookContent, error) {
	args := m.Called(ctx, id, contentID, update, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.BookContent), args.Error(1)
}

func (m *MockBookManager) RemoveContent(ctx context.Context, id string, contentID int64, actor model.Actor) error {
	args := m.Called(ctx, id, contentID, actor)
	return args.Error(0)
}

func (m *MockBookManager) Vote(ctx context.Context, id string, voter model.Actor, voteType *model.VoteType) (*model.Vote, error) {
	args := m.Called(ctx, id, voter, voteType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vote), args.Error(1)
}
