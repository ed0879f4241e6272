package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims holds the session token payload. Field types and JSON tags are
// compatible with the middleware's parser so tokens issued here round-trip.
type Claims struct {
	jwt.RegisteredClaims
	TenantID string `json:"tid"`
	UserID   string `json:"uid"`
	Role     string `json:"role"`
	Email    string `json:"email"`
}

// ErrInvalidToken is returned when a JWT cannot be parsed, carries a bad
// signature, or has expired. Callers must not distinguish these cases.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueToken creates a signed HS256 session token. There is no server-side
// revocation; tokens are invalidated by expiry only.
func IssueToken(secret string, u TokenSubject, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "opsdesk",
		},
		TenantID: u.TenantID,
		UserID:   u.UserID.String(),
		Role:     u.Role,
		Email:    u.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueToken: %w", err)
	}

	return signed, nil
}

// TokenSubject carries the identity fields embedded in a session token.
type TokenSubject struct {
	UserID   uuid.UUID
	TenantID string
	Role     string
	Email    string
}

// ValidateToken parses and validates a session token string. Signature,
// algorithm, and expiry are all checked. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}
