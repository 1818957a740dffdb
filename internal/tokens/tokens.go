package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/invisibility-inc/echo-backend/internal/config"
)

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, and unexpected algorithms.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired is returned when the token signature is fine but exp has passed.
	ErrTokenExpired = errors.New("token expired")
)

// Claims is the identity claim embedded in a session token.
type Claims struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issue creates a signed session token for the given subject. The expiry
// window is fixed at issuance (cfg.JWT.AccessTokenTTL, 5 weeks by default);
// there is no refresh rotation — a refresh simply re-issues a fresh token.
func Issue(cfg *config.Config, subject string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWT.AccessTokenTTL)),
	}
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return jt.SignedString([]byte(cfg.JWT.Secret))
}

// Verify validates the token signature and expiry and returns the embedded
// claims. Verification is pure: no I/O, no state.
func Verify(cfg *config.Config, token string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWT.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	rc, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || rc.Subject == "" {
		return nil, ErrInvalidToken
	}
	c := &Claims{Subject: rc.Subject}
	if rc.IssuedAt != nil {
		c.IssuedAt = rc.IssuedAt.Time
	}
	if rc.ExpiresAt != nil {
		c.ExpiresAt = rc.ExpiresAt.Time
	}
	return c, nil
}
