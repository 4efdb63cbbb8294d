package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"

	"github.com/google/uuid"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/auth"
	"github.com/caltrack/caltrack/internal/model"
)

// MinPasswordLength keeps signup passwords out of trivially guessable
// territory without imposing composition rules.
const MinPasswordLength = 8

// UserStore is the account persistence contract, satisfied by the postgres
// ledger store.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	UserByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthService handles signup and login for the remote backend.
type AuthService struct {
	users     UserStore
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(users UserStore, tokens *auth.TokenService, passwords *auth.PasswordService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the account and its freshly issued token so the handler
// can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a new account and logs it in.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*AuthResult, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperror.ValidationFailed("email", "invalid email address")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	if existing, err := s.users.UserByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperror.ValidationFailed("email", "email is already registered")
	} else if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperror.Persistence("issuing token", err)
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates an existing account. Unknown email and wrong password
// both come back as the same unauthenticated error so the response does not
// reveal which addresses have accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthenticated()
		}
		return nil, err
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthenticated()
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, apperror.Persistence("issuing token", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return &AuthResult{User: user, Token: token}, nil
}
