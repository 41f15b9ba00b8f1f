package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
)

type MockDeleteQueueRepository struct {
	mock.Mock
}

func (m *MockDeleteQueueRepository) Mark(ctx context.Context, filenames []string, softDeleteTime time.Time) error {
	args := m.Called(ctx, filenames, softDeleteTime)
	return args.Error(0)
}

func (m *MockDeleteQueueRepository) Restore(ctx context.Context, filenames []string) error {
	args := m.Called(ctx, filenames)
	return args.Error(0)
}

func (m *MockDeleteQueueRepository) Claim(ctx context.Context, maxSoftDeleteTime time.Time) ([]string, error) {
	args := m.Called(ctx, maxSoftDeleteTime)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}
