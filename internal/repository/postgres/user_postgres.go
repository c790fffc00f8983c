package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloudsync/internal/database"
	"cloudsync/internal/model"
	"cloudsync/internal/repository"
)

const usersEmailIndex = "uq_users_email_lower"

// UserPostgres is a PostgreSQL implementation of repository.UserRepository.
type UserPostgres struct {
	db *sql.DB
}

// NewUserPostgres creates a new UserPostgres repository.
func NewUserPostgres(db *sql.DB) *UserPostgres {
	return &UserPostgres{db: db}
}

var _ repository.UserRepository = (*UserPostgres)(nil)

// Create inserts a new user. The email uniqueness index is case-insensitive.
func (r *UserPostgres) Create(ctx context.Context, u *model.User) (*model.User, error) {
	const q = `
		INSERT INTO users (id, email, password_hash, created_at, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, email, password_hash, created_at, is_active
	`
	row := r.db.QueryRowContext(ctx, q, u.ID, u.Email, u.PasswordHash, u.CreatedAt, u.IsActive)
	out, err := scanUser(row)
	if err != nil {
		if database.IsUniqueViolation(err, usersEmailIndex) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return out, nil
}

// FindByEmail matches case-insensitively.
func (r *UserPostgres) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
		SELECT id, email, password_hash, created_at, is_active
		FROM users
		WHERE lower(email) = lower($1)
	`
	return r.findOne(ctx, q, email)
}

func (r *UserPostgres) SetActive(ctx context.Context, email string, active bool) error {
	const q = `UPDATE users SET is_active = $2 WHERE lower(email) = lower($1)`
	res, err := r.db.ExecContext(ctx, q, email, active)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return requireAffected(res)
}

func (r *UserPostgres) findOne(ctx context.Context, q string, arg string) (*model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, q, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.IsActive); err != nil {
		return nil, err
	}
	return &u, nil
}

// requireAffected maps a zero-row write to repository.ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}
