package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"cloudsync/internal/metrics"
	"cloudsync/internal/model"
	"cloudsync/internal/repository"
)

const (
	// MaxShareTTLHours caps a share link's lifetime at one year.
	MaxShareTTLHours = 8760
	// DefaultShareTTLHours applies when a request omits the lifetime.
	DefaultShareTTLHours = 24

	shareTokenBytes = 32
)

// Grant kinds returned by Redeem.
const (
	GrantDownload = "download"
	GrantMetadata = "metadata"
)

// SharedFile is the view of a file given to anonymous share holders.
// It leaves out the owner.
type SharedFile struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

func newSharedFile(f *model.File) *SharedFile {
	return &SharedFile{
		ID:          f.ID,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		Size:        f.Size,
		CreatedAt:   f.CreatedAt,
	}
}

// ShareGrant is what an anonymous holder of a share token receives.
// URL is empty for metadata grants.
type ShareGrant struct {
	Kind         string      `json:"kind"`
	File         *SharedFile `json:"file"`
	URL          string      `json:"url,omitempty"`
	URLExpiresAt *time.Time  `json:"url_expires_at,omitempty"`
	AccessCount  int64       `json:"access_count"`
}

// ShareService issues and redeems share links.
type ShareService interface {
	// Create issues a link to an owned file valid for ttlHours in (0, 8760].
	Create(ctx context.Context, ownerID, fileID string, ttlHours int, allowDownload bool) (*model.ShareLink, error)
	// Redeem resolves a token to a grant and counts the access. Failed
	// redemptions are never counted.
	Redeem(ctx context.Context, token string) (*ShareGrant, error)
	List(ctx context.Context, ownerID, fileID string) ([]model.ShareLink, error)
	// Revoke deletes a link. Its token redeems as invalid afterwards.
	Revoke(ctx context.Context, ownerID, linkID string) error
}

type shareService struct {
	ledger   FileService
	files    repository.FileRepository
	links    repository.ShareLinkRepository
	metrics  *metrics.Metrics
	now      func() time.Time
	newToken func() (string, error)
}

// NewShareService constructs a new ShareService.
func NewShareService(ledger FileService, files repository.FileRepository, links repository.ShareLinkRepository, m *metrics.Metrics) ShareService {
	return &shareService{
		ledger:   ledger,
		files:    files,
		links:    links,
		metrics:  m,
		now:      time.Now,
		newToken: randomToken,
	}
}

// randomToken returns 256 random bits, base64url without padding.
func randomToken() (string, error) {
	b := make([]byte, shareTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (s *shareService) Create(ctx context.Context, ownerID, fileID string, ttlHours int, allowDownload bool) (*model.ShareLink, error) {
	if ttlHours <= 0 || ttlHours > MaxShareTTLHours {
		return nil, fmt.Errorf("%w: expires_in_hours must be between 1 and %d", ErrValidation, MaxShareTTLHours)
	}

	f, err := s.ledger.Get(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	tok, err := s.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate share token: %w", err)
	}

	now := s.now().UTC()
	link, err := s.links.Create(ctx, &model.ShareLink{
		ID:            uuid.NewString(),
		FileID:        f.ID,
		Token:         tok,
		CreatedAt:     now,
		ExpiresAt:     now.Add(time.Duration(ttlHours) * time.Hour),
		AllowDownload: allowDownload,
	})
	if err != nil {
		return nil, fmt.Errorf("create share link: %w", err)
	}
	return link, nil
}

func (s *shareService) Redeem(ctx context.Context, token string) (*ShareGrant, error) {
	grant, err := s.redeem(ctx, token)
	switch {
	case err == nil:
		s.metrics.ShareRedemption(metrics.ResultSuccess)
	case errors.Is(err, ErrInvalidShareLink):
		s.metrics.ShareRedemption("invalid")
	case errors.Is(err, ErrShareLinkExpired):
		s.metrics.ShareRedemption("expired")
	default:
		s.metrics.ShareRedemption(metrics.ResultFailure)
	}
	return grant, err
}

func (s *shareService) redeem(ctx context.Context, token string) (*ShareGrant, error) {
	if token == "" {
		return nil, ErrInvalidShareLink
	}

	link, err := s.links.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidShareLink
		}
		return nil, fmt.Errorf("find share link: %w", err)
	}
	if link.Expired(s.now()) {
		return nil, ErrShareLinkExpired
	}

	f, err := s.files.FindByID(ctx, link.FileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidShareLink
		}
		return nil, fmt.Errorf("find shared file: %w", err)
	}

	grant := &ShareGrant{Kind: GrantMetadata, File: newSharedFile(f)}
	if link.AllowDownload {
		dl, err := s.ledger.PresignDownload(ctx, f)
		if err != nil {
			return nil, err
		}
		grant.Kind = GrantDownload
		grant.URL = dl.URL
		grant.URLExpiresAt = &dl.ExpiresAt
	}

	// Counted last and conditionally, so a link that expired or was revoked
	// after the checks above is reported as expired and not counted.
	n, err := s.links.IncrementAccess(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShareLinkExpired
		}
		return nil, fmt.Errorf("count share access: %w", err)
	}
	grant.AccessCount = n
	return grant, nil
}

func (s *shareService) List(ctx context.Context, ownerID, fileID string) ([]model.ShareLink, error) {
	f, err := s.ledger.Get(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}
	links, err := s.links.ListByFile(ctx, f.ID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	return links, nil
}

func (s *shareService) Revoke(ctx context.Context, ownerID, linkID string) error {
	if linkID == "" {
		return ErrNotFoundOrForbidden
	}
	if err := s.links.DeleteOwned(ctx, ownerID, linkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFoundOrForbidden
		}
		return fmt.Errorf("revoke share link: %w", err)
	}
	return nil
}
