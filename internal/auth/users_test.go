package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestMemoryUserRepo(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := NewMemoryUserRepo()
	_, err = repo.AddUser("Admin", string(hash), true)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.Len())

	_, err = repo.AddUser("admin", string(hash), false)
	assert.ErrorIs(t, err, ErrUserExists)
	_, err = repo.AddUser("plain", "not-a-bcrypt-hash", false)
	assert.Error(t, err)

	user, err := repo.GetUserByUsername("ADMIN")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	_, err = repo.GetUserByUsername("ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	user, err = repo.ValidateCredentials("admin", "secret")
	require.NoError(t, err)
	assert.Equal(t, "Admin", user.Username)

	_, err = repo.ValidateCredentials("admin", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = repo.ValidateCredentials("ghost", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "pw"))
	assert.False(t, CheckPassword(hash, "other"))
}
