// Package auth verifies signed session tokens issued by the identity provider.
package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/smallbiznis/ispdesk/internal/clock"
	"github.com/smallbiznis/ispdesk/internal/config"
)

// DefaultRole applies to tokens that carry no roles claim.
const DefaultRole = "staff"

var (
	ErrMissingToken  = errors.New("missing_token")
	ErrInvalidToken  = errors.New("invalid_token")
	ErrNotConfigured = errors.New("auth_not_configured")
)

type Claims struct {
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the verified identity behind a request.
type Principal struct {
	Subject   string
	Roles     []string
	ExpiresAt *time.Time
}

// PrimaryRole is the first role, used for log correlation.
func (p Principal) PrimaryRole() string {
	if len(p.Roles) == 0 {
		return DefaultRole
	}
	return p.Roles[0]
}

type Verifier struct {
	secret []byte
	clock  clock.Clock
}

func NewVerifier(cfg config.Config, clk clock.Clock) *Verifier {
	return &Verifier{
		secret: []byte(strings.TrimSpace(cfg.AuthJWTSecret)),
		clock:  clk,
	}
}

// Configured reports whether a signing secret is available.
func (v *Verifier) Configured() bool {
	return v != nil && len(v.secret) > 0
}

// Verify checks the HS256 signature and time claims of raw.
func (v *Verifier) Verify(raw string) (Principal, error) {
	if !v.Configured() {
		return Principal{}, ErrNotConfigured
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Principal{}, ErrMissingToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(v.clock.Now),
	)
	if err != nil {
		return Principal{}, ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return Principal{}, ErrInvalidToken
	}

	roles := make([]string, 0, len(claims.Roles))
	for _, role := range claims.Roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role != "" {
			roles = append(roles, role)
		}
	}
	if len(roles) == 0 {
		roles = []string{DefaultRole}
	}

	principal := Principal{Subject: subject, Roles: roles}
	if claims.ExpiresAt != nil {
		exp := claims.ExpiresAt.Time.UTC()
		principal.ExpiresAt = &exp
	}
	return principal, nil
}

// Issue signs a token for subject. Used by tooling and tests.
func (v *Verifier) Issue(subject string, roles []string, ttl time.Duration) (string, error) {
	if !v.Configured() {
		return "", ErrNotConfigured
	}
	now := v.clock.Now()
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
