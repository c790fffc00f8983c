package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"cloudsync/internal/metrics"
	"cloudsync/internal/model"
	"cloudsync/internal/repository"
	"cloudsync/internal/storage"
)

const (
	defaultPageSize = 50
	defaultMaxPage  = 200
	defaultURLTTL   = time.Hour
)

var tracer = otel.Tracer("cloudsync/internal/service")

// FileConfig carries the limits the ledger enforces.
type FileConfig struct {
	MaxUploadBytes int64
	DownloadURLTTL time.Duration
	MaxPageSize    int
}

// FileListResult is one page of an owner's files.
type FileListResult struct {
	Items    []model.File `json:"files"`
	Total    int          `json:"total_count"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// DownloadGrant is a presigned URL and the instant it stops working.
type DownloadGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// FileService is the file ledger: it keeps blobs and their metadata rows in step
// and scopes every owner operation to the caller's files.
type FileService interface {
	// Upload stores the blob first and records the row only after the store
	// confirmed exactly size bytes.
	Upload(ctx context.Context, ownerID string, r io.Reader, filename, contentType string, size int64) (*model.File, error)
	// List returns a page of the owner's files ordered oldest first. page is 1-indexed.
	List(ctx context.Context, ownerID string, page, pageSize int) (*FileListResult, error)
	Get(ctx context.Context, ownerID, fileID string) (*model.File, error)
	// Delete removes the blob, then the row. If the blob delete fails the row stays.
	Delete(ctx context.Context, ownerID, fileID string) error
	DownloadURL(ctx context.Context, ownerID, fileID string) (*DownloadGrant, error)
	SetVisibility(ctx context.Context, ownerID, fileID string, public bool) (*model.File, error)
	// PublicDownloadURL grants a URL for a public file to anyone.
	PublicDownloadURL(ctx context.Context, fileID string) (*DownloadGrant, error)
	// PresignDownload grants a URL for an already authorized file record.
	PresignDownload(ctx context.Context, f *model.File) (*DownloadGrant, error)
}

type fileService struct {
	store   storage.Storage
	repo    repository.FileRepository
	cfg     FileConfig
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewFileService constructs a new FileService. Zero config values fall back to defaults.
func NewFileService(store storage.Storage, repo repository.FileRepository, cfg FileConfig, m *metrics.Metrics, logger *slog.Logger) FileService {
	if cfg.DownloadURLTTL <= 0 {
		cfg.DownloadURLTTL = defaultURLTTL
	}
	if cfg.MaxPageSize <= 0 {
		cfg.MaxPageSize = defaultMaxPage
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &fileService{
		store:   store,
		repo:    repo,
		cfg:     cfg,
		metrics: m,
		logger:  logger.With("component", "file_ledger"),
		now:     time.Now,
	}
}

func (s *fileService) Upload(ctx context.Context, ownerID string, r io.Reader, filename, contentType string, size int64) (*model.File, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: file content is required", ErrValidation)
	}
	if strings.TrimSpace(filename) == "" {
		return nil, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if strings.TrimSpace(contentType) == "" {
		return nil, fmt.Errorf("%w: content type is required", ErrValidation)
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if s.cfg.MaxUploadBytes > 0 && size > s.cfg.MaxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrTooLarge, size, s.cfg.MaxUploadBytes)
	}

	key := storage.AllocateKey(ownerID, filename)

	if err := s.put(ctx, key, r, size, contentType, filename); err != nil {
		s.metrics.Upload(metrics.ResultFailure, 0)
		return nil, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}
	// The store's view of the object is authoritative for the stored size.
	info, err := s.stat(ctx, key)
	if err != nil {
		s.removeBlob(ctx, key, "stat_failed")
		s.metrics.Upload(metrics.ResultFailure, 0)
		return nil, fmt.Errorf("%w: %v", ErrStorageWriteFailed, err)
	}
	if info.Size != size {
		s.removeBlob(ctx, key, "size_mismatch")
		s.metrics.Upload(metrics.ResultFailure, 0)
		return nil, fmt.Errorf("%w: received %d bytes, declared %d", ErrValidation, info.Size, size)
	}

	stored, err := s.repo.Create(ctx, &model.File{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Filename:    filename,
		ContentType: contentType,
		Size:        info.Size,
		StorageKey:  key,
		CreatedAt:   s.now().UTC(),
	})
	if err != nil {
		s.removeBlob(ctx, key, "metadata_insert_failed")
		s.metrics.Upload(metrics.ResultFailure, 0)
		return nil, fmt.Errorf("save file metadata: %w", err)
	}

	s.metrics.Upload(metrics.ResultSuccess, stored.Size)
	return stored, nil
}

func (s *fileService) List(ctx context.Context, ownerID string, page, pageSize int) (*FileListResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > s.cfg.MaxPageSize {
		pageSize = s.cfg.MaxPageSize
	}

	res, err := s.repo.ListByOwner(ctx, ownerID, repository.PageQuery{
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return &FileListResult{Items: res.Items, Total: res.Total, Page: page, PageSize: pageSize}, nil
}

func (s *fileService) Get(ctx context.Context, ownerID, fileID string) (*model.File, error) {
	if fileID == "" {
		return nil, ErrNotFoundOrForbidden
	}
	f, err := s.repo.FindOwned(ctx, ownerID, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	return f, nil
}

func (s *fileService) Delete(ctx context.Context, ownerID, fileID string) error {
	f, err := s.Get(ctx, ownerID, fileID)
	if err != nil {
		return err
	}

	if err := s.deleteBlob(ctx, f.StorageKey); err != nil {
		s.metrics.Delete(metrics.ResultFailure)
		return fmt.Errorf("%w: %v", ErrStorageDeleteFailed, err)
	}

	if err := s.repo.DeleteOwned(ctx, ownerID, f.ID); err != nil {
		s.metrics.Delete(metrics.ResultFailure)
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFoundOrForbidden
		}
		return fmt.Errorf("delete file metadata: %w", err)
	}

	s.metrics.Delete(metrics.ResultSuccess)
	return nil
}

func (s *fileService) DownloadURL(ctx context.Context, ownerID, fileID string) (*DownloadGrant, error) {
	f, err := s.Get(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	return s.PresignDownload(ctx, f)
}

func (s *fileService) SetVisibility(ctx context.Context, ownerID, fileID string, public bool) (*model.File, error) {
	if fileID == "" {
		return nil, ErrNotFoundOrForbidden
	}
	f, err := s.repo.SetPublic(ctx, ownerID, fileID, public)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFoundOrForbidden
		}
		return nil, fmt.Errorf("update file: %w", err)
	}
	return f, nil
}

func (s *fileService) PublicDownloadURL(ctx context.Context, fileID string) (*DownloadGrant, error) {
	if fileID == "" {
		return nil, ErrNotFound
	}
	f, err := s.repo.FindByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find file: %w", err)
	}
	if !f.IsPublic {
		return nil, ErrNotFound
	}
	return s.PresignDownload(ctx, f)
}

func (s *fileService) PresignDownload(ctx context.Context, f *model.File) (*DownloadGrant, error) {
	ctx, span := tracer.Start(ctx, "storage.presign_get", trace.WithAttributes(attribute.String("storage.key", f.StorageKey)))
	defer span.End()

	expiresAt := s.now().UTC().Add(s.cfg.DownloadURLTTL)
	signed, err := s.store.PresignGet(ctx, f.StorageKey, s.cfg.DownloadURLTTL, f.Filename)
	if err != nil {
		markSpan(span, err)
		return nil, fmt.Errorf("%w: %v", ErrStorageReadFailed, err)
	}
	return &DownloadGrant{URL: signed, ExpiresAt: expiresAt}, nil
}

func (s *fileService) put(ctx context.Context, key string, r io.Reader, size int64, contentType, filename string) error {
	ctx, span := tracer.Start(ctx, "storage.put", trace.WithAttributes(
		attribute.String("storage.key", key),
		attribute.Int64("storage.size", size),
	))
	defer span.End()

	_, err := s.store.Put(ctx, key, r, storage.PutObjectOptions{
		Size:        size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-filename": url.QueryEscape(filename)},
	})
	if err != nil {
		markSpan(span, err)
	}
	return err
}

func (s *fileService) stat(ctx context.Context, key string) (storage.ObjectInfo, error) {
	ctx, span := tracer.Start(ctx, "storage.stat", trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	info, err := s.store.Stat(ctx, key)
	if err != nil {
		markSpan(span, err)
		return info, err
	}
	span.SetAttributes(attribute.Int64("storage.size", info.Size))
	return info, nil
}

func (s *fileService) deleteBlob(ctx context.Context, key string) error {
	ctx, span := tracer.Start(ctx, "storage.delete", trace.WithAttributes(attribute.String("storage.key", key)))
	defer span.End()

	err := s.store.Delete(ctx, key)
	if err != nil {
		markSpan(span, err)
	}
	return err
}

// removeBlob is the best-effort cleanup after a rejected upload.
func (s *fileService) removeBlob(ctx context.Context, key, reason string) {
	if err := s.deleteBlob(ctx, key); err != nil {
		s.logger.WarnContext(ctx, "upload_rollback_failed",
			"storage_key", key,
			"reason", reason,
			"error_message", err.Error(),
		)
	}
}

func markSpan(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
