package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cloudsync/internal/auth/token"
	"cloudsync/internal/model"
	"cloudsync/internal/repository"
	repoMocks "cloudsync/internal/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessGate_AuthenticateRequest(t *testing.T) {
	ctx := context.Background()
	secret := strings.Repeat("k", 32)
	tokens, err := token.New(secret, "HS256", time.Minute)
	require.NoError(t, err)

	issue := func(email string) string {
		tok, _, err := tokens.IssueSession(email)
		require.NoError(t, err)
		return tok
	}
	expiredTokens, err := token.New(secret, "HS256", time.Minute, token.WithClock(func() time.Time {
		return time.Now().Add(-time.Hour)
	}))
	require.NoError(t, err)
	stale, _, err := expiredTokens.IssueSession("a@b.io")
	require.NoError(t, err)
	noSubject, err := tokens.Issue(map[string]any{"role": "x"}, 0)
	require.NoError(t, err)

	repo := new(repoMocks.MockUserRepository)
	repo.On("FindByEmail", ctx, "a@b.io").Return(&model.User{ID: "u-1", Email: "a@b.io", IsActive: true}, nil)
	repo.On("FindByEmail", ctx, "off@b.io").Return(&model.User{ID: "u-2", Email: "off@b.io", IsActive: false}, nil)
	repo.On("FindByEmail", ctx, "ghost@b.io").Return(nil, repository.ErrNotFound)
	repo.On("FindByEmail", ctx, "boom@b.io").Return(nil, errors.New("db down"))
	users := NewUserService(repo, newTestHasher(), &stubSessions{})
	gate := NewAccessGate(tokens, users, nil)

	tests := []struct {
		name       string
		header     string
		wantUser   string
		wantReason string
	}{
		{name: "valid bearer", header: "Bearer " + issue("a@b.io"), wantUser: "u-1"},
		{name: "scheme is case-insensitive", header: "bearer " + issue("a@b.io"), wantUser: "u-1"},
		{name: "missing header", header: "", wantReason: ReasonMissingToken},
		{name: "scheme without token", header: "Bearer ", wantReason: ReasonMissingToken},
		{name: "basic auth", header: "Basic YTpi", wantReason: ReasonInvalidScheme},
		{name: "raw token without scheme", header: issue("a@b.io"), wantReason: ReasonInvalidScheme},
		{name: "garbage token", header: "Bearer not.a.jwt", wantReason: ReasonInvalidToken},
		{name: "expired token", header: "Bearer " + stale, wantReason: ReasonInvalidToken},
		{name: "token without subject", header: "Bearer " + noSubject, wantReason: ReasonInvalidToken},
		{name: "unknown subject", header: "Bearer " + issue("ghost@b.io"), wantReason: ReasonUnknownSubject},
		{name: "disabled account", header: "Bearer " + issue("off@b.io"), wantReason: ReasonAccountDisabled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := gate.AuthenticateRequest(ctx, tt.header)

			if tt.wantReason == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantUser, u.ID)
				return
			}
			assert.Nil(t, u)
			assert.ErrorIs(t, err, ErrUnauthorized)
			var ue *UnauthorizedError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, tt.wantReason, ue.Reason)
		})
	}

	t.Run("registry failure is not an auth failure", func(t *testing.T) {
		_, err := gate.AuthenticateRequest(ctx, "Bearer "+issue("boom@b.io"))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrUnauthorized)
	})
}

func TestUnauthorizedError(t *testing.T) {
	err := unauthorized(ReasonInvalidToken)
	assert.Equal(t, "unauthorized: invalid_token", err.Error())
	assert.True(t, errors.Is(err, ErrUnauthorized))
}
