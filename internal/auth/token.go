package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/go-contacts-api/internal/config"
)

var (
	ErrTokenExpired      = errors.New("token has expired")
	ErrTokenInvalidScope = errors.New("token scope mismatch")
	ErrTokenMalformed    = errors.New("malformed token")
)

// Scope restricts what a token may be used for.
type Scope string

const (
	ScopeAccess            Scope = "access"
	ScopeRefresh           Scope = "refresh"
	ScopeEmailConfirmation Scope = "email_confirmation"
)

// TokenClaims represents the claims carried by every token kind
type TokenClaims struct {
	ID        string    `json:"jti"`
	Subject   string    `json:"sub"` // user email
	Scope     Scope     `json:"scope"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenService issues and verifies signed, expiring tokens.
// Implementations include PasetoService (PASETO v4.local) and JWTService (HS256).
type TokenService interface {
	CreateToken(subject string, scope Scope, ttl time.Duration) (string, error)
	// VerifyToken fails with ErrTokenMalformed, ErrTokenExpired or ErrTokenInvalidScope.
	VerifyToken(token string, expectedScope Scope) (*TokenClaims, error)
}

// NewTokenService builds the token service selected by cfg.TokenStrategy.
func NewTokenService(cfg config.AuthConfig) (TokenService, error) {
	switch cfg.TokenStrategy {
	case config.TokenStrategyPaseto:
		return NewPasetoService([]byte(cfg.PasetoKey))
	case config.TokenStrategyJWT:
		return NewJWTService([]byte(cfg.JWTSecret))
	default:
		return nil, fmt.Errorf("unknown token strategy %q", cfg.TokenStrategy)
	}
}

// checkClaims applies the expiry and scope rules shared by all implementations.
func checkClaims(claims *TokenClaims, expectedScope Scope, now time.Time) error {
	if claims.Subject == "" {
		return ErrTokenMalformed
	}
	if !now.Before(claims.ExpiresAt) {
		return ErrTokenExpired
	}
	if claims.Scope != expectedScope {
		return ErrTokenInvalidScope
	}
	return nil
}
