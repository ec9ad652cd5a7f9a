// Package auth issues and verifies the signed bearer tokens used by every
// protected route.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/eaglemart/platform/shared/errs"
)

// AccessToken is a freshly issued bearer token.
type AccessToken struct {
	Token     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Claims is the JWT payload. Subject carries the principal id.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenManager mints and verifies HMAC-signed JWTs. It holds no session
// state; rotating the secret invalidates every outstanding token.
type TokenManager struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*TokenManager)

// WithClock overrides the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(m *TokenManager) { m.now = now }
}

func NewTokenManager(secret, algorithm string, ttl time.Duration, opts ...Option) (*TokenManager, error) {
	if secret == "" {
		return nil, errors.New("token secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	var method jwt.SigningMethod
	switch algorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	m := &TokenManager{secret: []byte(secret), method: method, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// TTL reports the configured token lifetime.
func (m *TokenManager) TTL() time.Duration { return m.ttl }

// Issue mints a token for subject expiring ttl after now.
func (m *TokenManager) Issue(subject string) (*AccessToken, error) {
	issuedAt := m.now().UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(m.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &AccessToken{Token: signed, Subject: subject, IssuedAt: issuedAt, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature, the algorithm and the expiry, and returns the
// claims. Every failure is reported as errs.ErrUnauthenticated.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.Wrap(errs.ErrUnauthenticated, "Token has expired", err)
		}
		return nil, errs.Wrap(errs.ErrUnauthenticated, "Invalid token", err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, errs.New(errs.ErrUnauthenticated, "Invalid token")
	}
	return claims, nil
}
