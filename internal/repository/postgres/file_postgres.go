package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"cloudsync/internal/model"
	"cloudsync/internal/repository"
)

// FilePostgres is a PostgreSQL implementation of repository.FileRepository.
// It uses database/sql with parameterized queries and contains no business logic.
type FilePostgres struct {
	db *sql.DB
}

// NewFilePostgres creates a new FilePostgres repository.
func NewFilePostgres(db *sql.DB) *FilePostgres {
	return &FilePostgres{db: db}
}

var _ repository.FileRepository = (*FilePostgres)(nil)

const fileColumns = `id, owner_id, filename, content_type, size, storage_key, is_public, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*model.File, error) {
	var f model.File
	if err := row.Scan(
		&f.ID,
		&f.OwnerID,
		&f.Filename,
		&f.ContentType,
		&f.Size,
		&f.StorageKey,
		&f.IsPublic,
		&f.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new file row and returns the stored record.
func (r *FilePostgres) Create(ctx context.Context, f *model.File) (*model.File, error) {
	const q = `
		INSERT INTO files (id, owner_id, filename, content_type, size, storage_key, is_public, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + fileColumns
	row := r.db.QueryRowContext(ctx, q,
		f.ID,
		f.OwnerID,
		f.Filename,
		f.ContentType,
		f.Size,
		f.StorageKey,
		f.IsPublic,
		f.CreatedAt,
	)
	out, err := scanFile(row)
	if err != nil {
		return nil, fmt.Errorf("insert file: %w", err)
	}
	return out, nil
}

// FindByID fetches a file regardless of owner.
func (r *FilePostgres) FindByID(ctx context.Context, id string) (*model.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1`
	return r.findOne(ctx, q, id)
}

// FindOwned fetches a file only if it belongs to ownerID.
func (r *FilePostgres) FindOwned(ctx context.Context, ownerID, id string) (*model.File, error) {
	const q = `SELECT ` + fileColumns + ` FROM files WHERE id = $1 AND owner_id = $2`
	return r.findOne(ctx, q, id, ownerID)
}

func (r *FilePostgres) findOne(ctx context.Context, q string, args ...any) (*model.File, error) {
	f, err := scanFile(r.db.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select file: %w", err)
	}
	return f, nil
}

// ListByOwner returns one page of an owner's files, oldest first, and the owner's total.
// Both come from the same snapshot, so a concurrent upload or delete cannot
// make the total disagree with the page.
func (r *FilePostgres) ListByOwner(ctx context.Context, ownerID string, pq repository.PageQuery) (*repository.PageResult[model.File], error) {
	const qCount = `SELECT COUNT(*) FROM files WHERE owner_id = $1`
	const qList = `
		SELECT ` + fileColumns + `
		FROM files
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	out := &repository.PageResult[model.File]{Items: make([]model.File, 0)}
	err := withTx(ctx, r.db, snapshotRead, func(q queryer) error {
		if err := q.QueryRowContext(ctx, qCount, ownerID).Scan(&out.Total); err != nil {
			return fmt.Errorf("count files: %w", err)
		}

		rows, err := q.QueryContext(ctx, qList, ownerID, pq.Limit, pq.Offset)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			f, err := scanFile(rows)
			if err != nil {
				return fmt.Errorf("scan file: %w", err)
			}
			out.Items = append(out.Items, *f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOwned removes the row if it belongs to ownerID. Share links cascade.
func (r *FilePostgres) DeleteOwned(ctx context.Context, ownerID, id string) error {
	const q = `DELETE FROM files WHERE id = $1 AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	return requireAffected(res)
}

// SetPublic updates the visibility flag and returns the updated row.
func (r *FilePostgres) SetPublic(ctx context.Context, ownerID, id string, public bool) (*model.File, error) {
	const q = `
		UPDATE files SET is_public = $3
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + fileColumns
	return r.findOne(ctx, q, id, ownerID, public)
}
