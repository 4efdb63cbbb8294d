package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	svc, err := NewTokenService("test-secret-key-at-least-16-chars")
	require.NoError(t, err)
	return svc
}

func TestNewTokenService_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenService("short")
	assert.Error(t, err)
}

func TestTokenService_GenerateAndValidate(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.Generate("user-123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userID, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "user-123", userID)
}

func TestTokenService_Validate_Expired(t *testing.T) {
	svc := newTestTokenService(t)

	token, err := svc.GenerateWithDuration("user-123", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expired")
}

func TestTokenService_Validate_WrongSecret(t *testing.T) {
	svc := newTestTokenService(t)
	other, err := NewTokenService("a-completely-different-secret-key")
	require.NoError(t, err)

	token, err := svc.Generate("user-123")
	require.NoError(t, err)

	_, err = other.Validate(token)
	assert.Error(t, err)
}

func TestTokenService_Validate_Garbage(t *testing.T) {
	svc := newTestTokenService(t)

	for _, bad := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		_, err := svc.Validate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
