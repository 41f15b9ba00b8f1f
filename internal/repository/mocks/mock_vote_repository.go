package mocks

import (
	"context"

	"bookapi/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockVoteRepository struct {
	mock.Mock
}

func (m *MockVoteRepository) Find(ctx context.Context, userID string, entityType model.EntityType, entityID string) (*model.Vote, error) {
	args := m.Called(ctx, userID, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Vote), args.Error(1)
}

func (m *MockVoteRepository) Save(ctx context.Context, vote *model.Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *MockVoteRepository) Delete(ctx context.Context, vote *model.Vote) error {
	args := m.Called(ctx, vote)
	return args.Error(0)
}

func (m *MockVoteRepository) DeleteByEntity(ctx context.Context, entityType model.EntityType, entityID string) (int64, error) {
	args := m.Called(ctx, entityType, entityID)
	return args.Get(0).(int64), args.Error(1)
}
