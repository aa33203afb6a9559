package services

import (
	"context"
	"errors"

	"github.com/emilythestrangee/blogposts/backend/internal/logger"
	"github.com/emilythestrangee/blogposts/backend/internal/models"
)

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(password, hash string) bool
}

// TokenManager issues and parses bearer tokens carrying a user id.
type TokenManager interface {
	Issue(userID uint) (string, error)
	Parse(token string) (uint, error)
}

// UserGetter resolves users by id or username.
type UserGetter interface {
	Get(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Login failure reasons, used as metric labels.
const (
	ReasonUnknownUser   = "unknown_user"
	ReasonWrongPassword = "wrong_password"
)

// LoginError carries the reason a login was rejected. The client only ever
// sees ErrInvalidCredentials.
type LoginError struct {
	Reason string
}

func (e *LoginError) Error() string {
	return ErrInvalidCredentials.Message
}

func (e *LoginError) Unwrap() error {
	return ErrInvalidCredentials
}

// AuthService handles login and token resolution.
type AuthService struct {
	users    UserGetter
	verifier PasswordVerifier
	tokens   TokenManager
}

func NewAuthService(users UserGetter, verifier PasswordVerifier, tokens TokenManager) *AuthService {
	return &AuthService{
		users:    users,
		verifier: verifier,
		tokens:   tokens,
	}
}

// Login checks the credentials and returns a signed access token.
func (svc *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := svc.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Log.Infow("login rejected", "username", username, "reason", ReasonUnknownUser)
			return "", &LoginError{Reason: ReasonUnknownUser}
		}
		return "", err
	}

	if !svc.verifier.Verify(password, user.PasswordHash) {
		logger.Log.Infow("login rejected", "username", username, "reason", ReasonWrongPassword)
		return "", &LoginError{Reason: ReasonWrongPassword}
	}

	token, err := svc.tokens.Issue(user.ID)
	if err != nil {
		logger.Log.Errorw("failed to issue token", "user_id", user.ID, "err", err)
		return "", err
	}

	logger.Log.Infow("user logged in", "user_id", user.ID)
	return token, nil
}

// Authenticate resolves a bearer token to the live user it was issued for.
func (svc *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := svc.tokens.Parse(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := svc.users.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return user, nil
}
