package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"cloudsync/internal/model"
	"cloudsync/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shareCols = []string{"id", "file_id", "token", "created_at", "expires_at", "allow_download", "access_count"}

func TestShareLinkPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	l := &model.ShareLink{ID: "s-1", FileID: "f-1", Token: "tok", CreatedAt: now, ExpiresAt: now.Add(time.Hour), AllowDownload: true}

	mock.ExpectQuery("INSERT INTO share_links").
		WithArgs(l.ID, l.FileID, l.Token, l.CreatedAt, l.ExpiresAt, l.AllowDownload, int64(0)).
		WillReturnRows(sqlmock.NewRows(shareCols).AddRow(l.ID, l.FileID, l.Token, now, l.ExpiresAt, true, 0))

	out, err := NewShareLinkPostgres(db).Create(context.Background(), l)
	require.NoError(t, err)
	assert.Equal(t, "tok", out.Token)
	assert.Zero(t, out.AccessCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareLinkPostgres_FindByToken(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewShareLinkPostgres(db)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE token = $1")).
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows(shareCols).AddRow("s-1", "f-1", "tok", now, now.Add(time.Hour), false, 7))

	l, err := repo.FindByToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(7), l.AccessCount)
	assert.False(t, l.AllowDownload)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE token = $1")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(shareCols))

	_, err = repo.FindByToken(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareLinkPostgres_IncrementAccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewShareLinkPostgres(db)
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("live link", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("SET access_count = access_count + 1")).
			WithArgs("tok", now).
			WillReturnRows(sqlmock.NewRows([]string{"access_count"}).AddRow(4))

		n, err := repo.IncrementAccess(ctx, "tok", now)
		require.NoError(t, err)
		assert.Equal(t, int64(4), n)
	})

	t.Run("expired between read and update", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE token = $1 AND expires_at > $2")).
			WithArgs("tok", now).
			WillReturnRows(sqlmock.NewRows([]string{"access_count"}))

		_, err := repo.IncrementAccess(ctx, "tok", now)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareLinkPostgres_ListByFile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("FROM share_links").
		WithArgs("f-1").
		WillReturnRows(sqlmock.NewRows(shareCols).
			AddRow("s-1", "f-1", "t1", now, now.Add(time.Hour), true, 0).
			AddRow("s-2", "f-1", "t2", now, now.Add(2*time.Hour), true, 1))

	links, err := NewShareLinkPostgres(db).ListByFile(context.Background(), "f-1")
	require.NoError(t, err)
	assert.Len(t, links, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestShareLinkPostgres_DeleteOwned(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewShareLinkPostgres(db)
	ctx := context.Background()

	mock.ExpectExec("DELETE FROM share_links").
		WithArgs("s-1", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.DeleteOwned(ctx, "u-1", "s-1"))

	mock.ExpectExec("DELETE FROM share_links").
		WithArgs("s-1", "u-2").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.DeleteOwned(ctx, "u-2", "s-1"), repository.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}
