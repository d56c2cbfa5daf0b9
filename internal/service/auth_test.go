package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookmarkd/bookmarkd/internal/config"
	"github.com/bookmarkd/bookmarkd/internal/db"
)

func testAuthConfig() *config.Config {
	return &config.Config{
		JWTSecret:   "test-secret",
		TokenTTLMin: 15,
	}
}

func TestSignup(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuth(conn, testAuthConfig(), zap.NewNop().Sugar())

	token, err := svc.Signup("test@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	userID, err := svc.ParseToken(token)
	require.NoError(t, err)

	user := db.User{}
	require.NoError(t, conn.First(&user, userID).Error)
	assert.Equal(t, "test@example.com", user.Email)
	assert.NotEqual(t, "hunter2hunter2", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("hunter2hunter2")))

	_, err = svc.Signup("test@example.com", "another-password")
	assert.Equal(t, ErrCredentialsTaken, err)
}

func TestSignin(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuth(conn, testAuthConfig(), zap.NewNop().Sugar())

	_, err := svc.Signup("test@example.com", "hunter2hunter2")
	require.NoError(t, err)

	token, err := svc.Signin("test@example.com", "hunter2hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = svc.Signin("test@example.com", "wrong-password")
	assert.Equal(t, ErrLoginPasswordDoesNotMatch, err)

	_, err = svc.Signin("nobody@example.com", "hunter2hunter2")
	assert.Equal(t, ErrLoginUserNotFound, err)
}

func TestParseTokenRejectsInvalid(t *testing.T) {
	conn := newTestDB(t)
	svc := NewAuth(conn, testAuthConfig(), zap.NewNop().Sugar())

	_, err := svc.ParseToken("not-a-token")
	assert.Error(t, err)

	foreign := NewAuth(conn, &config.Config{JWTSecret: "other-secret", TokenTTLMin: 15}, zap.NewNop().Sugar())
	token, err := foreign.Signup("test@example.com", "hunter2hunter2")
	require.NoError(t, err)

	_, err = svc.ParseToken(token)
	assert.Error(t, err)
}
