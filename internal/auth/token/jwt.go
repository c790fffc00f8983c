// Package token issues and validates signed session tokens.
package token

import (
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the only error Validate returns. Forged, expired and
// malformed tokens are deliberately indistinguishable to callers.
var ErrInvalidToken = errors.New("invalid token")

// SubjectClaim carries the account email.
const SubjectClaim = "sub"

// Manager signs tokens with a process-wide HMAC secret.
type Manager struct {
	secret     []byte
	method     jwt.SigningMethod
	defaultTTL time.Duration
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for exp/iat and validation.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New returns a Manager. Only HMAC algorithms (HS256, HS384, HS512) are accepted.
func New(secret, algorithm string, defaultTTL time.Duration, opts ...Option) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	m := &Manager{
		secret:     []byte(secret),
		method:     method,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Issue signs claims with an expiration of now+ttl. A non-positive ttl uses
// the default. Caller-provided exp/iat are overwritten.
func (m *Manager) Issue(claims map[string]any, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := m.now()

	mc := jwt.MapClaims{}
	maps.Copy(mc, claims)
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()

	return jwt.NewWithClaims(m.method, mc).SignedString(m.secret)
}

// IssueSession issues a token whose subject is the account email.
func (m *Manager) IssueSession(email string) (string, time.Time, error) {
	expiresAt := time.Unix(m.now().Add(m.defaultTTL).Unix(), 0).UTC()
	tok, err := m.Issue(map[string]any{SubjectClaim: email}, m.defaultTTL)
	if err != nil {
		return "", time.Time{}, err
	}
	return tok, expiresAt, nil
}

// Validate checks algorithm, signature and expiry and returns the claims.
func (m *Manager) Validate(raw string) (map[string]any, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Subject extracts the subject claim.
func Subject(claims map[string]any) (string, bool) {
	sub, ok := claims[SubjectClaim].(string)
	return sub, ok && sub != ""
}
