// Package jwt issues and validates the access tokens duel clients present.
// Accounts live with an external identity provider; this service only needs a
// stable user id and a display name.
package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

const (
	defaultTTL    = time.Hour
	defaultIssuer = "word-duel"
)

// Claims is the access token body. Guests may play but not edit word lists.
type Claims struct {
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	IsGuest     bool      `json:"is_guest"`
	jwt.RegisteredClaims
}

// User is the identity a token is minted for.
type User struct {
	ID          uuid.UUID
	DisplayName string
	IsGuest     bool
}

type TokenConfig struct {
	AccessSecret []byte
	AccessTTL    time.Duration
	Issuer       string
	// Leeway tolerates clock skew between the identity provider and this service.
	Leeway time.Duration
	Now    func() time.Time
}

// Manager signs and verifies HS256 access tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

func NewManager(cfg TokenConfig) *Manager {
	m := &Manager{
		secret: cfg.AccessSecret,
		ttl:    cfg.AccessTTL,
		issuer: cfg.Issuer,
		now:    cfg.Now,
	}
	if m.ttl <= 0 {
		m.ttl = defaultTTL
	}
	if m.issuer == "" {
		m.issuer = defaultIssuer
	}
	if m.now == nil {
		m.now = time.Now
	}
	m.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
		jwt.WithLeeway(cfg.Leeway),
		jwt.WithExpirationRequired(),
	)
	return m
}

// GenerateAccessToken mints a token for user valid for the configured TTL.
func (m *Manager) GenerateAccessToken(user User) (string, error) {
	issuedAt := m.now()
	claims := Claims{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		IsGuest:     user.IsGuest,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(m.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken returns the claims of a well-formed, unexpired token
// that names a user. Expiry is reported as ErrExpiredToken, everything else as
// ErrInvalidToken.
func (m *Manager) ValidateAccessToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := m.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, ErrExpiredToken
	case err != nil:
		return nil, ErrInvalidToken
	case claims.UserID == uuid.Nil:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
