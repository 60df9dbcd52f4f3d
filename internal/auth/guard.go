package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"studyroom-backend/internal/model"
)

var (
	// ErrUnauthenticated is returned when no credential was presented.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidToken is returned for malformed, expired or forged credentials.
	ErrInvalidToken = errors.New("invalid token")
)

// Principal is the identity resolved from a bearer credential.
type Principal struct {
	AccountID string
	Role      model.Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == model.RoleAdmin
}

// Guard validates an Authorization header value and resolves the caller.
type Guard interface {
	Authenticate(ctx context.Context, authorization string) (Principal, error)
}

// Claims is the token payload.
type Claims struct {
	Role model.Role `json:"role"`
	jwt.RegisteredClaims
}

// JWTGuard verifies HS256 tokens minted by Issuer. It holds no mutable state
// and is safe for concurrent use.
type JWTGuard struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTGuard creates a guard for tokens signed with secret by issuer.
func NewJWTGuard(secret []byte, issuer string, leeway time.Duration) *JWTGuard {
	return &JWTGuard{
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

// Authenticate implements Guard.
func (g *JWTGuard) Authenticate(_ context.Context, authorization string) (Principal, error) {
	raw, err := bearerToken(authorization)
	if err != nil {
		return Principal{}, err
	}

	var claims Claims
	_, err = g.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return g.secret, nil
	})
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return Principal{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	switch claims.Role {
	case model.RoleStudent, model.RoleAdmin:
	default:
		return Principal{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}
	return Principal{AccountID: claims.Subject, Role: claims.Role}, nil
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", ErrUnauthenticated
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrInvalidToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrUnauthenticated
	}
	return token, nil
}
