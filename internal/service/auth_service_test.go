package service

import (
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCredentialedUser(t *testing.T, f *fixture, email, password string) *model.User {
	t.Helper()
	hashed, err := HashPassword(password)
	require.NoError(t, err)

	role := f.seedGlobalRole("Standard", 10)
	user := model.User{
		Username:     "alice",
		Email:        email,
		Password:     hashed,
		GlobalRoleID: role.ID,
	}
	require.NoError(t, f.userRepo.Create(f.ctx(), &user))
	return &user
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	seedCredentialedUser(t, f, "alice@example.org", "s3cret")
	auth := NewAuthService(f.userRepo, []byte("test-secret"))

	tokens, err := auth.Login(f.ctx(), LoginRequest{Email: "alice@example.org", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	seedCredentialedUser(t, f, "alice@example.org", "s3cret")
	auth := NewAuthService(f.userRepo, []byte("test-secret"))

	_, err := auth.Login(f.ctx(), LoginRequest{Email: "alice@example.org", Password: "wrong"})
	assert.Equal(t, apperror.Unauthenticated, apperror.KindOf(err))

	// Unknown accounts fail the same way as bad passwords.
	_, err = auth.Login(f.ctx(), LoginRequest{Email: "nobody@example.org", Password: "s3cret"})
	assert.Equal(t, apperror.Unauthenticated, apperror.KindOf(err))
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	seedCredentialedUser(t, f, "alice@example.org", "s3cret")
	auth := NewAuthService(f.userRepo, []byte("test-secret"))

	tokens, err := auth.Login(f.ctx(), LoginRequest{Email: "alice@example.org", Password: "s3cret"})
	require.NoError(t, err)

	fresh, err := auth.Refresh(f.ctx(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, fresh.RefreshToken)

	// The used token was consumed by the rotation.
	_, err = auth.Refresh(f.ctx(), RefreshRequest{RefreshToken: tokens.RefreshToken})
	assert.Equal(t, apperror.Unauthenticated, apperror.KindOf(err))
}
