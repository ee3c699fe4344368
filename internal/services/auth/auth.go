// Package services implements registration, login, token checks and
// preferences of writer accounts.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrisminnick/starboard2/internal/lib/jwt"
	"github.com/chrisminnick/starboard2/internal/lib/password"
	"github.com/chrisminnick/starboard2/internal/models"
	"github.com/chrisminnick/starboard2/internal/storage"
)

var (
	// ErrUserExists is returned when the email is already registered.
	ErrUserExists = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken is returned for a missing, malformed or expired token,
	// and for a token whose user no longer exists.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTrialExpired is returned when the access gate is closed.
	ErrTrialExpired = errors.New("trial period has expired, please upgrade to continue")
	// ErrUserNotFound is returned by Me and UpdatePreferences for a vanished user.
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository is the user part of the store.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdatePreferences(ctx context.Context, userID string, prefs models.Preferences) error
}

// AuthService handles accounts and bearer tokens.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	now      func() time.Time
}

// NewAuthService returns an AuthService over users signing tokens with jwtMaker.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		now:      time.Now,
	}
}

// Register creates an account with a fresh 7-day trial and signs a token for it.
func (s *AuthService) Register(ctx context.Context, name, email, rawPassword string) (string, *models.PublicUser, error) {
	const op = "services.auth.Register"
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	user := models.NewUser(strings.TrimSpace(name), normalizeEmail(email), hashed, s.now())
	created, err := s.users.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrUserExists) {
		return "", nil, ErrUserExists
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(created.ID, created.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	public := created.Public()
	return token, &public, nil
}

// Login checks the password and the access gate, then signs a token.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (string, *models.PublicUser, error) {
	const op = "services.auth.Login"
	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, storage.ErrNotFound) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if !user.HasAccess(s.now()) {
		return "", nil, ErrTrialExpired
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return "", nil, fmt.Errorf("%s: %w", op, err)
	}
	public := user.Public()
	return token, &public, nil
}

// Authenticate resolves a bearer token to its user. The gate is checked on
// every request, so a trial that ends mid-session locks the account out.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.Authenticate"
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.GetUser(ctx, claims.UserID())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.HasAccess(s.now()) {
		return nil, ErrTrialExpired
	}
	return user, nil
}

// Me returns the public view of the user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	const op = "services.auth.Me"
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	public := user.Public()
	return &public, nil
}

// UpdatePreferences merges patch into the stored preferences and returns the
// result. Validation of the patch values is done by the caller.
func (s *AuthService) UpdatePreferences(ctx context.Context, userID string, patch models.PreferencesPatch) (*models.Preferences, error) {
	const op = "services.auth.UpdatePreferences"
	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	prefs := user.Preferences
	prefs.Apply(patch)
	err = s.users.UpdatePreferences(ctx, userID, prefs)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &prefs, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
