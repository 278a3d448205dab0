// Package identity turns bearer tokens into principals. Tokens are HS256
// JWTs carrying the user id in "sub" and the role in "role".
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrMissingSecret   = errors.New("jwt secret is empty")
)

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret []byte
	now    func() time.Time
}

func NewVerifier(secret string) (*Verifier, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	return &Verifier{secret: []byte(secret), now: time.Now}, nil
}

// Principal validates a raw token or an "Authorization: Bearer" value.
// Unknown roles fall back to business_user; the system role cannot be
// obtained from a token.
func (v *Verifier) Principal(token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if len(token) > 7 && strings.EqualFold(token[:7], "bearer ") {
		token = strings.TrimSpace(token[7:])
	}
	if token == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing token", ErrUnauthenticated)
	}

	var c claims
	_, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(v.now), jwt.WithExpirationRequired())
	if err != nil {
		return domain.Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if c.Subject == "" {
		return domain.Principal{}, fmt.Errorf("%w: missing subject", ErrUnauthenticated)
	}

	role := domain.RoleBusinessUser
	if domain.Role(c.Role) == domain.RoleAdmin {
		role = domain.RoleAdmin
	}
	return domain.Principal{ID: c.Subject, Role: role}, nil
}

// Issue signs a token for the principal. Used by the dev tooling and tests.
func Issue(secret string, p domain.Principal, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	now := time.Now()
	c := claims{
		Role: string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(secret))
}
