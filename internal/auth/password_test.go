package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordService_HashAndVerify(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	hash, err := svc.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.NoError(t, svc.Verify(hash, "correct horse battery staple"))
}

func TestPasswordService_Verify_WrongPassword(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	hash, err := svc.Hash("right-password")
	require.NoError(t, err)

	err = svc.Verify(hash, "wrong-password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid password")
}

func TestPasswordService_Hash_RejectsOverlongPassword(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)

	_, err := svc.Hash(strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestPasswordService_Verify_MalformedHash(t *testing.T) {
	svc := NewPasswordServiceForTest(bcrypt.MinCost)
	assert.Error(t, svc.Verify("not-a-bcrypt-hash", "anything"))
}
