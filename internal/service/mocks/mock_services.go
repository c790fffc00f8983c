package mocks

import (
	"context"
	"io"

	"cloudsync/internal/model"
	"cloudsync/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Resolve(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockUserService) SetActive(ctx context.Context, email string, active bool) error {
	args := m.Called(ctx, email, active)
	return args.Error(0)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, ownerID string, r io.Reader, filename, contentType string, size int64) (*model.File, error) {
	args := m.Called(ctx, ownerID, r, filename, contentType, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) List(ctx context.Context, ownerID string, page, pageSize int) (*service.FileListResult, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FileListResult), args.Error(1)
}

func (m *MockFileService) Get(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	args := m.Called(ctx, ownerID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) Delete(ctx context.Context, ownerID, fileID string) error {
	args := m.Called(ctx, ownerID, fileID)
	return args.Error(0)
}

func (m *MockFileService) DownloadURL(ctx context.Context, ownerID, fileID string) (*service.DownloadGrant, error) {
	args := m.Called(ctx, ownerID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadGrant), args.Error(1)
}

func (m *MockFileService) SetVisibility(ctx context.Context, ownerID, fileID string, public bool) (*model.File, error) {
	args := m.Called(ctx, ownerID, fileID, public)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.File), args.Error(1)
}

func (m *MockFileService) PublicDownloadURL(ctx context.Context, fileID string) (*service.DownloadGrant, error) {
	args := m.Called(ctx, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadGrant), args.Error(1)
}

func (m *MockFileService) PresignDownload(ctx context.Context, f *model.File) (*service.DownloadGrant, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DownloadGrant), args.Error(1)
}

type MockShareService struct {
	mock.Mock
}

func (m *MockShareService) Create(ctx context.Context, ownerID, fileID string, ttlHours int, allowDownload bool) (*model.ShareLink, error) {
	args := m.Called(ctx, ownerID, fileID, ttlHours, allowDownload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ShareLink), args.Error(1)
}

func (m *MockShareService) Redeem(ctx context.Context, token string) (*service.ShareGrant, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShareGrant), args.Error(1)
}

func (m *MockShareService) List(ctx context.Context, ownerID, fileID string) ([]model.ShareLink, error) {
	args := m.Called(ctx, ownerID, fileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ShareLink), args.Error(1)
}

func (m *MockShareService) Revoke(ctx context.Context, ownerID, linkID string) error {
	args := m.Called(ctx, ownerID, linkID)
	return args.Error(0)
}

type MockAccessGate struct {
	mock.Mock
}

func (m *MockAccessGate) AuthenticateRequest(ctx context.Context, header string) (*model.User, error) {
	args := m.Called(ctx, header)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAccessGate) RedeemShare(ctx context.Context, token string) (*service.ShareGrant, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ShareGrant), args.Error(1)
}
