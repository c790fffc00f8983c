package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"cloudsync/internal/auth/password"
	"cloudsync/internal/model"
	"cloudsync/internal/repository"
)

// TokenTypeBearer is the token_type reported with every session.
const TokenTypeBearer = "bearer"

// dummyPassword is hashed once and verified against when an email is unknown,
// so both login failure paths run exactly one bcrypt comparison.
const dummyPassword = "cloudsync-unknown-account"

var validate = validator.New()

// PasswordHasher hashes and verifies account passwords.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encodedHash string) bool
}

// SessionIssuer signs session tokens for an account email.
type SessionIssuer interface {
	IssueSession(email string) (string, time.Time, error)
}

// Session is the result of a successful login.
type Session struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *model.User `json:"user"`
}

// UserService is the identity registry.
type UserService interface {
	// Register creates an active account. Emails are trimmed and lower-cased.
	Register(ctx context.Context, email, password string) (*model.User, error)
	// Authenticate checks credentials. Unknown email and wrong password both
	// return ErrInvalidCredentials; ErrAccountDisabled is only reported after
	// the password matched.
	Authenticate(ctx context.Context, email, password string) (*model.User, error)
	// Resolve looks an account up by email, active or not.
	Resolve(ctx context.Context, email string) (*model.User, error)
	// Login authenticates and issues a bearer session.
	Login(ctx context.Context, email, password string) (*Session, error)
	// SetActive enables or disables an account.
	SetActive(ctx context.Context, email string, active bool) error
}

type userService struct {
	repo      repository.UserRepository
	hasher    PasswordHasher
	sessions  SessionIssuer
	dummyHash func() string
	now       func() time.Time
}

// NewUserService constructs a new UserService.
func NewUserService(repo repository.UserRepository, hasher PasswordHasher, sessions SessionIssuer) UserService {
	return &userService{
		repo:     repo,
		hasher:   hasher,
		sessions: sessions,
		dummyHash: sync.OnceValue(func() string {
			h, _ := hasher.Hash(dummyPassword)
			return h
		}),
		now: time.Now,
	}
}

// NormalizeEmail trims surrounding space and lower-cases the address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *userService) Register(ctx context.Context, email, plain string) (*model.User, error) {
	email = NormalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if plain == "" {
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(plain)
	if err != nil {
		if errors.Is(err, password.ErrPasswordTooLong) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: email already registered", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *userService) Authenticate(ctx context.Context, email, plain string) (*model.User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hash := s.dummyHash()
	if u != nil {
		hash = u.PasswordHash
	}
	if !s.hasher.Verify(plain, hash) || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}
	return u, nil
}

func (s *userService) Resolve(ctx context.Context, email string) (*model.User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *userService) Login(ctx context.Context, email, plain string) (*Session, error) {
	u, err := s.Authenticate(ctx, email, plain)
	if err != nil {
		return nil, err
	}
	tok, exp, err := s.sessions.IssueSession(u.Email)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return &Session{
		AccessToken: tok,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   exp,
		User:        u,
	}, nil
}

func (s *userService) SetActive(ctx context.Context, email string, active bool) error {
	if err := s.repo.SetActive(ctx, NormalizeEmail(email), active); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}
