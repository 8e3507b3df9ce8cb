package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/relateos/internal/auth"
	"github.com/mmynk/relateos/internal/models"
	"github.com/mmynk/relateos/internal/storage"
)

// Session is a signed-in user and their bearer token.
type Session struct {
	Token string
	User  *models.User
}

// AuthService handles sign-up, login and current-user lookups.
type AuthService struct {
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	users         storage.UserStore
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, users storage.UserStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		users:         users,
		logger:        logger,
	}
}

// Signup creates a new user account and signs it in.
func (s *AuthService) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	s.logger.Info("Signup request", "email", email)

	if strings.TrimSpace(email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidArgument)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}

	user, err := s.authenticator.Register(ctx, email, name, password)
	if err != nil {
		if errors.Is(err, auth.ErrEmailExists) || errors.Is(err, auth.ErrWeakPassword) {
			s.logger.Warn("Signup rejected", "email", email, "error", err)
		} else {
			s.logger.Error("Signup failed", "email", email, "error", err)
		}
		return nil, err
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.logger.Info("User registered successfully", "user_id", user.ID, "email", user.Email)
	return &Session{Token: token, User: user}, nil
}

// Login authenticates a user and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	s.logger.Info("Login request", "email", email)

	if email == "" || password == "" {
		return nil, auth.ErrInvalidCredentials
	}

	user, err := s.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		s.logger.Warn("Login failed", "email", email, "error", err)
		return nil, auth.ErrInvalidCredentials
	}

	token, err := s.jwtManager.Generate(user)
	if err != nil {
		s.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		return nil, err
	}

	s.logger.Info("User logged in successfully", "user_id", user.ID)
	return &Session{Token: token, User: user}, nil
}

// Me returns the stored profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, auth.ErrMissingToken
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user, nil
}
