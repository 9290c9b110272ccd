package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestGetHash_RoundTrip(t *testing.T) {
	for _, pw := range []string{"password123", "p@ssw0rd!@#$%^&*()", "пароль-на-кириллице"} {
		hash, err := GetHash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.NoError(t, CompareHash(hash, pw))
	}
}

func TestGetHash_Salted(t *testing.T) {
	a, err := GetHash("same")
	require.NoError(t, err)
	b, err := GetHash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCompareHash_Mismatch(t *testing.T) {
	hash, err := GetHash("correct_password")
	require.NoError(t, err)

	err = CompareHash(hash, "wrong_password")
	assert.ErrorIs(t, err, bcrypt.ErrMismatchedHashAndPassword)
	assert.Error(t, CompareHash("not-a-hash", "x"))
}

func TestGetHash_TooLong(t *testing.T) {
	_, err := GetHash(strings.Repeat("a", 73))
	assert.Error(t, err)
}
