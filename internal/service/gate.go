package service

import (
	"context"
	"errors"
	"strings"

	"cloudsync/internal/auth/token"
	"cloudsync/internal/model"
)

// TokenValidator verifies session tokens and returns their claims.
type TokenValidator interface {
	Validate(raw string) (map[string]any, error)
}

// AccessGate turns request credentials into an identity or a share grant.
type AccessGate interface {
	// AuthenticateRequest resolves an Authorization header value to an active
	// user. Every failure is an *UnauthorizedError.
	AuthenticateRequest(ctx context.Context, header string) (*model.User, error)
	// RedeemShare resolves an anonymous share token.
	RedeemShare(ctx context.Context, shareToken string) (*ShareGrant, error)
}

type accessGate struct {
	tokens TokenValidator
	users  UserService
	shares ShareService
}

// NewAccessGate constructs a new AccessGate.
func NewAccessGate(tokens TokenValidator, users UserService, shares ShareService) AccessGate {
	return &accessGate{tokens: tokens, users: users, shares: shares}
}

func (g *accessGate) AuthenticateRequest(ctx context.Context, header string) (*model.User, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, unauthorized(ReasonMissingToken)
	}

	scheme, raw, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "bearer") {
		return nil, unauthorized(ReasonInvalidScheme)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, unauthorized(ReasonMissingToken)
	}

	claims, err := g.tokens.Validate(raw)
	if err != nil {
		return nil, unauthorized(ReasonInvalidToken)
	}
	sub, ok := token.Subject(claims)
	if !ok {
		return nil, unauthorized(ReasonInvalidToken)
	}

	u, err := g.users.Resolve(ctx, sub)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, unauthorized(ReasonUnknownSubject)
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, unauthorized(ReasonAccountDisabled)
	}
	return u, nil
}

func (g *accessGate) RedeemShare(ctx context.Context, shareToken string) (*ShareGrant, error) {
	return g.shares.Redeem(ctx, shareToken)
}
