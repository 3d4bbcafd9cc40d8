// Package auth implements the gate in front of the asset API. The lifecycle
// engine only sees the resulting actor name.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yi-nology/asset_tracker/pkg/config"
)

var (
	ErrMissingToken = errors.New("missing authorization header")
	ErrMalformed    = errors.New("invalid authorization header format")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Authenticator resolves an Authorization header into the acting principal.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (string, error)
}

// New returns the authenticator selected by cfg.
func New(cfg config.AuthConfig) Authenticator {
	if !cfg.Enabled {
		return Anonymous{}
	}
	return NewJWT(cfg.Secret, cfg.Issuer)
}

// Anonymous lets every request through without a principal.
type Anonymous struct{}

func (Anonymous) Authenticate(context.Context, string) (string, error) {
	return "", nil
}

// Claims are the JWT claims accepted by the API.
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// JWT verifies HS256 bearer tokens.
type JWT struct {
	signingKey []byte
	issuer     string
}

func NewJWT(secret, issuer string) *JWT {
	return &JWT{signingKey: []byte(secret), issuer: issuer}
}

// Issue creates a signed token for subject valid for ttl.
func (a *JWT) Issue(subject, username string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Authenticate validates a "Bearer <token>" header and returns the username,
// falling back to the subject.
func (a *JWT) Authenticate(_ context.Context, authorization string) (string, error) {
	if authorization == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(authorization, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrMalformed
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(*jwt.Token) (interface{}, error) {
		return a.signingKey, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Username != "" {
		return claims.Username, nil
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}
