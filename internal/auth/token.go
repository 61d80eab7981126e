package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/config"
	"github.com/SiddarthaBoreddy/ExpenseTracker-RESTApi/internal/models"
)

// Claims is the payload of a session token. Subject carries the identity id.
type Claims struct {
	Username string      `json:"name"`
	Role     models.Role `json:"role"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the token holder sees every ledger entry.
func (c *Claims) IsAdmin() bool {
	return c.Role.IsAdmin()
}

// TokenIssuer mints and verifies HS256 session tokens.
type TokenIssuer struct {
	key      []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
}

func NewTokenIssuer(cfg config.JWTConfig) (*TokenIssuer, error) {
	if cfg.SecretKey == "" {
		return nil, models.ErrSigningKeyMissing
	}
	lifetime := cfg.Expiry
	if lifetime <= 0 {
		lifetime = 5 * time.Minute
	}
	return &TokenIssuer{
		key:      []byte(cfg.SecretKey),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// WithClock replaces the time source; used by tests.
func (t *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	t.now = now
	return t
}

// Lifetime returns how long issued tokens stay valid.
func (t *TokenIssuer) Lifetime() time.Duration {
	return t.lifetime
}

func (t *TokenIssuer) Issue(u models.User) (string, error) {
	issuedAt := t.now()
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    t.issuer,
			Audience:  jwt.ClaimStrings{t.audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(t.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the claims of a valid token. Any failure (bad signature,
// expiry, wrong issuer or audience, malformed payload) is ErrTokenInvalid.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return t.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithAudience(t.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return nil, errors.Join(models.ErrTokenInvalid, err)
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}
