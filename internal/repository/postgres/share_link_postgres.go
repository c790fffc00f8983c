package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloudsync/internal/model"
	"cloudsync/internal/repository"
)

// ShareLinkPostgres is a PostgreSQL implementation of repository.ShareLinkRepository.
type ShareLinkPostgres struct {
	db *sql.DB
}

// NewShareLinkPostgres creates a new ShareLinkPostgres repository.
func NewShareLinkPostgres(db *sql.DB) *ShareLinkPostgres {
	return &ShareLinkPostgres{db: db}
}

var _ repository.ShareLinkRepository = (*ShareLinkPostgres)(nil)

const shareLinkColumns = `id, file_id, token, created_at, expires_at, allow_download, access_count`

func scanShareLink(row rowScanner) (*model.ShareLink, error) {
	var l model.ShareLink
	if err := row.Scan(
		&l.ID,
		&l.FileID,
		&l.Token,
		&l.CreatedAt,
		&l.ExpiresAt,
		&l.AllowDownload,
		&l.AccessCount,
	); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *ShareLinkPostgres) Create(ctx context.Context, l *model.ShareLink) (*model.ShareLink, error) {
	const q = `
		INSERT INTO share_links (id, file_id, token, created_at, expires_at, allow_download, access_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + shareLinkColumns
	out, err := scanShareLink(r.db.QueryRowContext(ctx, q,
		l.ID,
		l.FileID,
		l.Token,
		l.CreatedAt,
		l.ExpiresAt,
		l.AllowDownload,
		l.AccessCount,
	))
	if err != nil {
		return nil, fmt.Errorf("insert share link: %w", err)
	}
	return out, nil
}

func (r *ShareLinkPostgres) FindByToken(ctx context.Context, token string) (*model.ShareLink, error) {
	const q = `SELECT ` + shareLinkColumns + ` FROM share_links WHERE token = $1`
	l, err := scanShareLink(r.db.QueryRowContext(ctx, q, token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select share link: %w", err)
	}
	return l, nil
}

// IncrementAccess is a single conditional UPDATE so concurrent redemptions
// never lose counts and a link that expired in the meantime is not counted.
func (r *ShareLinkPostgres) IncrementAccess(ctx context.Context, token string, now time.Time) (int64, error) {
	const q = `
		UPDATE share_links SET access_count = access_count + 1
		WHERE token = $1 AND expires_at > $2
		RETURNING access_count
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, q, token, now).Scan(&n); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment share link: %w", err)
	}
	return n, nil
}

func (r *ShareLinkPostgres) ListByFile(ctx context.Context, fileID string) ([]model.ShareLink, error) {
	const q = `
		SELECT ` + shareLinkColumns + `
		FROM share_links
		WHERE file_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.QueryContext(ctx, q, fileID)
	if err != nil {
		return nil, fmt.Errorf("list share links: %w", err)
	}
	defer rows.Close()

	items := make([]model.ShareLink, 0)
	for rows.Next() {
		l, err := scanShareLink(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share link: %w", err)
		}
		items = append(items, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// DeleteOwned removes a link only when its file belongs to ownerID.
func (r *ShareLinkPostgres) DeleteOwned(ctx context.Context, ownerID, id string) error {
	const q = `
		DELETE FROM share_links s
		USING files f
		WHERE s.id = $1 AND s.file_id = f.id AND f.owner_id = $2
	`
	res, err := r.db.ExecContext(ctx, q, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete share link: %w", err)
	}
	return requireAffected(res)
}
