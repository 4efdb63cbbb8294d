package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/caltrack/caltrack/internal/apperror"
	"github.com/caltrack/caltrack/internal/auth"
	"github.com/caltrack/caltrack/internal/model"
)

type mockUserStore struct {
	byEmail map[string]*model.User
	created []*model.User
}

func newMockUserStore() *mockUserStore {
	return &mockUserStore{byEmail: make(map[string]*model.User)}
}

func (m *mockUserStore) CreateUser(_ context.Context, user *model.User) error {
	m.byEmail[user.Email] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserStore) UserByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := m.byEmail[email]
	if !ok {
		return nil, apperror.NotFound("user", email)
	}
	return user, nil
}

func newTestAuthService(t *testing.T, users UserStore) *AuthService {
	t.Helper()
	tokens, err := auth.NewTokenService("test-secret-key-at-least-16-chars")
	require.NoError(t, err)
	return NewAuthService(users, tokens, auth.NewPasswordServiceForTest(bcrypt.MinCost), testLogger())
}

func TestAuthService_Signup(t *testing.T) {
	users := newMockUserStore()
	svc := newTestAuthService(t, users)

	res, err := svc.Signup(context.Background(), "kim@example.com", "hunter2hunter2")
	require.NoError(t, err)
	require.NotNil(t, res.User)

	assert.NotEmpty(t, res.User.ID)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "kim@example.com", res.User.Email)
	assert.NotEqual(t, "hunter2hunter2", res.User.PasswordHash)
	require.Len(t, users.created, 1)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	svc := newTestAuthService(t, newMockUserStore())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"invalid email", "not-an-email", "hunter2hunter2"},
		{"empty email", "", "hunter2hunter2"},
		{"short password", "kim@example.com", "short"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.email, tt.password)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	svc := newTestAuthService(t, newMockUserStore())

	_, err := svc.Signup(context.Background(), "kim@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "kim@example.com", "anotherpassword")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestAuthService_Login(t *testing.T) {
	svc := newTestAuthService(t, newMockUserStore())

	signedUp, err := svc.Signup(context.Background(), "kim@example.com", "hunter2hunter2")
	require.NoError(t, err)

	res, err := svc.Login(context.Background(), "kim@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, signedUp.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc := newTestAuthService(t, newMockUserStore())

	_, err := svc.Signup(context.Background(), "kim@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), "kim@example.com", "wrong-password")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(t, newMockUserStore())

	// same error as wrong password so responses don't leak which emails exist
	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}
