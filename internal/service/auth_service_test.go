package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"fapiao/internal/config"
	"fapiao/internal/domain"
)

func newTestAuthService(t *testing.T, password string) AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	return NewAuthService(
		config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "fapiao"},
		config.AuthConfig{AdminUser: "admin", AdminPasswordHash: string(hash)},
	)
}

func TestLogin_Success(t *testing.T) {
	svc := newTestAuthService(t, "correct horse")

	token, err := svc.Login(LoginInput{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, token.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, time.Minute)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestAuthService(t, "correct horse")

	_, err := svc.Login(LoginInput{Username: "admin", Password: "battery staple"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestAuthService(t, "correct horse")

	_, err := svc.Login(LoginInput{Username: "root", Password: "correct horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_DisabledWithoutHash(t *testing.T) {
	svc := NewAuthService(
		config.JWTConfig{Secret: "test-secret", AccessExpiry: time.Hour, Issuer: "fapiao"},
		config.AuthConfig{AdminUser: "admin"},
	)

	_, err := svc.Login(LoginInput{Username: "admin", Password: "anything"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	svc := newTestAuthService(t, "correct horse")

	token, err := svc.Login(LoginInput{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "fapiao", claims.Issuer)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := newTestAuthService(t, "correct horse")
	token, err := svc.Login(LoginInput{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)

	other := NewAuthService(
		config.JWTConfig{Secret: "different-secret", AccessExpiry: time.Hour, Issuer: "fapiao"},
		config.AuthConfig{AdminUser: "admin"},
	)
	_, err = other.ValidateToken(token.AccessToken)
	assert.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newTestAuthService(t, "correct horse")

	_, err := svc.ValidateToken("not.a.token")
	assert.Error(t, err)
}
