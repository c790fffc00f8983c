package repository

import (
	"context"
	"errors"
	"time"

	"cloudsync/internal/model"
)

// Package repository contains data access abstractions. Implementations live in
// subpackages (postgres) and hold SQL only, no business rules.

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create inserts a user. Returns ErrDuplicate when the email is taken (any casing).
	Create(ctx context.Context, u *model.User) (*model.User, error)
	// FindByEmail looks a user up by normalized email.
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// SetActive toggles the activation flag. Returns ErrNotFound for unknown emails.
	SetActive(ctx context.Context, email string, active bool) error
}

// FileRepository persists file metadata. Every owner-scoped method matches on
// both id and owner so foreign rows are indistinguishable from missing ones.
type FileRepository interface {
	Create(ctx context.Context, f *model.File) (*model.File, error)
	FindByID(ctx context.Context, id string) (*model.File, error)
	FindOwned(ctx context.Context, ownerID, id string) (*model.File, error)
	// ListByOwner returns one page ordered by created_at, id ascending.
	ListByOwner(ctx context.Context, ownerID string, pq PageQuery) (*PageResult[model.File], error)
	// DeleteOwned removes the row. Returns ErrNotFound if nothing was deleted.
	DeleteOwned(ctx context.Context, ownerID, id string) error
	SetPublic(ctx context.Context, ownerID, id string, public bool) (*model.File, error)
}

// ShareLinkRepository persists share links.
type ShareLinkRepository interface {
	Create(ctx context.Context, l *model.ShareLink) (*model.ShareLink, error)
	FindByToken(ctx context.Context, token string) (*model.ShareLink, error)
	// IncrementAccess bumps access_count only while the link is unexpired at now.
	// Returns ErrNotFound when the token is unknown or already expired.
	IncrementAccess(ctx context.Context, token string, now time.Time) (int64, error)
	ListByFile(ctx context.Context, fileID string) ([]model.ShareLink, error)
	// DeleteOwned removes a link whose file belongs to ownerID.
	DeleteOwned(ctx context.Context, ownerID, id string) error
}

// PageQuery holds limit/offset pagination parameters.
type PageQuery struct {
	Limit  int
	Offset int
}

// PageResult is a generic pagination result wrapper.
type PageResult[T any] struct {
	Items []T
	Total int
}
