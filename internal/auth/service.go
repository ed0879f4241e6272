package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/argon2"

	"github.com/opsdesk/opsdesk/internal/domain"
)

// Sentinel errors for the auth package. ErrInvalidCredentials covers both
// unknown email and wrong password so callers cannot enumerate accounts.
var (
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	ErrAccountInactive    = errors.New("auth: account is inactive")
	ErrUserAlreadyExists  = errors.New("auth: user already exists")
	ErrUserNotFound       = errors.New("auth: user not found")
)

// argon2id parameters following OWASP recommendations.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// Service issues session tokens and manages credentials.
type Service struct {
	users     domain.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
}

// NewService creates a new auth service. The signing secret is immutable
// after construction.
func NewService(users domain.UserRepository, jwtSecret string, tokenTTL time.Duration) *Service {
	return &Service{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// RegisterParams carries the fields of a registration request.
type RegisterParams struct {
	TenantID  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string // defaults to member when empty
}

// Register creates a new user. Emails are globally unique across tenants so
// that login by email alone stays deterministic.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, p.Email)
	if err == nil && existing != nil {
		return nil, fmt.Errorf("auth.Register: %w", ErrUserAlreadyExists)
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	hash, err := hashPassword(p.Password)
	if err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	role := p.Role
	if role == "" {
		role = domain.RoleMember
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		TenantID:     p.TenantID,
		Email:        p.Email,
		PasswordHash: hash,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("auth.Register: %w", err)
	}

	return user, nil
}

// Login verifies email/password and mints a session token. Unknown email and
// wrong password are indistinguishable; an inactive account gets its own
// error.
func (s *Service) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return "", nil, fmt.Errorf("auth.Login: %w", ErrInvalidCredentials)
	}

	if !user.Active {
		return "", nil, fmt.Errorf("auth.Login: %w", ErrAccountInactive)
	}

	token, err := IssueToken(s.jwtSecret, TokenSubject{
		UserID:   user.ID,
		TenantID: user.TenantID,
		Role:     user.Role,
		Email:    user.Email,
	}, s.tokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("auth.Login: %w", err)
	}

	return token, user, nil
}

// GetUser returns the live user record for a token subject.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("auth.GetUser: %w", ErrUserNotFound)
	}

	return user, nil
}

// HashPassword generates an argon2id hash for storage. Exposed for admin
// user creation.
func HashPassword(password string) (string, error) {
	return hashPassword(password)
}

// hashPassword generates an argon2id hash with a random salt.
// Format: hex(salt) + "$" + hex(hash)
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(hash), nil
}

// verifyPassword checks a password against an argon2id hash.
func verifyPassword(password, encoded string) bool {
	var saltHex, hashHex string
	for i := range len(encoded) {
		if encoded[i] == '$' {
			saltHex = encoded[:i]
			hashHex = encoded[i+1:]
			break
		}
	}

	if saltHex == "" || hashHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	expectedHash, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	return subtle.ConstantTimeCompare(computed, expectedHash) == 1
}
