package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/auth"
)

func TestJWT_IssueAndValidateRoundTrip(t *testing.T) {
	t.Parallel()

	secret := "test-secret-key-very-long-and-secure"
	subject := auth.TokenSubject{
		UserID:   uuid.New(),
		TenantID: "acme",
		Role:     "admin",
		Email:    "jane@acme.test",
	}

	token, err := auth.IssueToken(secret, subject, 5*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(secret, token)
	require.NoError(t, err)
	require.NotNil(t, claims)

	assert.Equal(t, "acme", claims.TenantID)
	assert.Equal(t, subject.UserID.String(), claims.UserID)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "jane@acme.test", claims.Email)
	assert.Equal(t, "opsdesk", claims.Issuer)
	assert.NotNil(t, claims.IssuedAt)
	assert.NotNil(t, claims.ExpiresAt)
}

func TestJWT_ExpiredTokenRejected(t *testing.T) {
	t.Parallel()

	secret := "test-secret-key"

	// Issue a token that has already expired (negative TTL). The signature
	// is valid; expiry alone must reject it.
	token, err := auth.IssueToken(secret, auth.TokenSubject{
		UserID:   uuid.New(),
		TenantID: "acme",
		Role:     "member",
	}, -1*time.Second)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(secret, token)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_InvalidSecretRejected(t *testing.T) {
	t.Parallel()

	token, err := auth.IssueToken("correct-secret", auth.TokenSubject{
		UserID:   uuid.New(),
		TenantID: "acme",
		Role:     "member",
	}, 5*time.Minute)
	require.NoError(t, err)

	// Validate with a different secret.
	claims, err := auth.ValidateToken("wrong-secret", token)
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_MalformedTokenRejected(t *testing.T) {
	t.Parallel()

	claims, err := auth.ValidateToken("secret", "not.a.valid.jwt.token")
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWT_TamperedTokenRejected(t *testing.T) {
	t.Parallel()

	secret := "tamper-test-secret"

	token, err := auth.IssueToken(secret, auth.TokenSubject{
		UserID:   uuid.New(),
		TenantID: "acme",
		Role:     "member",
	}, 5*time.Minute)
	require.NoError(t, err)

	// Flip a character in the payload segment.
	tampered := []byte(token)
	mid := len(tampered) / 2
	if tampered[mid] == 'a' {
		tampered[mid] = 'b'
	} else {
		tampered[mid] = 'a'
	}

	claims, err := auth.ValidateToken(secret, string(tampered))
	require.Error(t, err)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
