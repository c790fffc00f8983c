package mocks

import (
	"context"
	"time"

	"cloudsync/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockShareLinkRepository struct {
	mock.Mock
}

func (m *MockShareLinkRepository) Create(ctx context.Context, l *model.ShareLink) (*model.ShareLink, error) {
	args := m.Called(ctx, l)
	if fn, ok := args.Get(0).(func(context.Context, *model.ShareLink) *model.ShareLink); ok {
		return fn(ctx, l), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareLinkRepository) FindByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareLinkRepository) IncrementAccess(ctx context.Context, token string, now time.Time) (int64, error) {
	args := m.Called(ctx, token, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockShareLinkRepository) ListByFile(ctx context.Context, fileID string) ([]model.ShareLink, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShareLink), args.Error(1)
}

func (m *MockShareLinkRepository) DeleteOwned(ctx context.Context, ownerID, id string) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}
