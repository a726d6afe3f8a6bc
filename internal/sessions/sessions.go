// Package sessions issues and verifies the signed admin session token. Sessions
// are stateless: the token itself (subject, issued-at, expiry) is the whole
// session, carried in an HTTP-only cookie. There is no revocation list; logout
// just clears the cookie.
package sessions

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the fixed session cookie identifier.
const CookieName = "admin_session"

// DefaultTTL is the session lifetime when none is configured.
const DefaultTTL = 7 * 24 * time.Hour

var ErrInvalidToken = errors.New("invalid session token")

// Manager signs and verifies session tokens with a single HS256 secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewManager(secret string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// WithClock overrides the time source; used by tests to simulate expiry.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration { return m.ttl }

// Issue creates a signed token with the username as subject.
func (m *Manager) Issue(username string) (string, error) {
	now := m.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(m.secret)
}

// Verify checks signature and expiry and returns the subject. Any failure maps
// to ErrInvalidToken; callers only need the boolean gate.
func (m *Manager) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
