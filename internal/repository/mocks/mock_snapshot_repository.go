package mocks

import (
	"context"

	"bookapi/internal/model"
	"bookapi/internal/repository"
	"github.com/stretchr/testify/mock"
)

type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Create(ctx context.Context, rec *model.SnapshotRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockSnapshotRepository) FindByID(ctx context.Context, targetType model.EntityType, targetID, id string) (*model.SnapshotRecord, error) {
	args := m.Called(ctx, targetType, targetID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SnapshotRecord), args.Error(1)
}

func (m *MockSnapshotRepository) List(ctx context.Context, targetType model.EntityType, targetID string, pq repository.PageQuery, chronological bool) ([]model.SnapshotRecord, error) {
	args := m.Called(ctx, targetType, targetID, pq, chronological)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SnapshotRecord), args.Error(1)
}

func (m *MockSnapshotRepository) Latest(ctx context.Context, targetType model.EntityType, targetID string) (*model.SnapshotRecord, error) {
	args := m.Called(ctx, targetType, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SnapshotRecord), args.Error(1)
}
