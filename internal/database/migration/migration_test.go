package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFiles_EmbedsOrderedMigrations(t *testing.T) {
	fsys, err := Files()
	require.NoError(t, err)

	names, err := fs.Glob(fsys, "*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"00001_create_users.sql",
		"00002_create_files.sql",
		"00003_create_share_links.sql",
	}, names)

	for _, name := range names {
		b, err := fs.ReadFile(fsys, name)
		require.NoError(t, err)
		body := string(b)
		assert.Contains(t, body, "-- +goose Up", name)
		assert.Contains(t, body, "-- +goose Down", name)
	}
}

func TestFiles_UniquenessConstraints(t *testing.T) {
	fsys, err := Files()
	require.NoError(t, err)

	read := func(name string) string {
		b, err := fs.ReadFile(fsys, name)
		require.NoError(t, err)
		return string(b)
	}

	assert.Contains(t, read("00001_create_users.sql"), "UNIQUE INDEX IF NOT EXISTS uq_users_email_lower ON users (lower(email))")

	files := read("00002_create_files.sql")
	assert.Contains(t, files, "storage_key  TEXT        NOT NULL UNIQUE")
	assert.Contains(t, files, "ON DELETE RESTRICT")

	shares := read("00003_create_share_links.sql")
	assert.True(t, strings.Contains(shares, "token          TEXT        NOT NULL UNIQUE"))
	assert.Contains(t, shares, "ON DELETE CASCADE")
}
