package service

import (
	"context"
	"testing"
	"time"

	"snapfeed/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerUser(t *testing.T, env *testEnv, email, username string) *models.User {
	t.Helper()
	u, err := env.auth.Register(context.Background(), RegisterInput{Email: email, Password: "password123", Username: username})
	require.NoError(t, err)
	return u
}

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	u, err := env.auth.Register(ctx, RegisterInput{
		Email:       "  Alice@Example.COM ",
		Password:    "password123",
		Username:    "Alice_01",
		DisplayName: "  Alice  ",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "alice_01", u.Username)
	assert.True(t, u.IsVerified)
	assert.Equal(t, models.RoleUser, u.Role)
	require.NotNil(t, u.DisplayName)
	assert.Equal(t, "Alice", *u.DisplayName)
	assert.Nil(t, u.Bio)
	assert.NotEqual(t, "password123", u.PasswordHash)

	_, err = env.auth.Register(ctx, RegisterInput{Email: "alice@example.com", Password: "password123", Username: "other"})
	requireCode(t, err, models.CodeConflict)
	assert.Contains(t, err.Error(), "Email or username already in use.")

	_, err = env.auth.Register(ctx, RegisterInput{Email: "new@example.com", Password: "password123", Username: "ALICE_01"})
	requireCode(t, err, models.CodeConflict)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "nope", Password: "password123", Username: "valid"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "pass1", Username: "valid"}},
		{"password without digit", RegisterInput{Email: "a@example.com", Password: "passwordonly", Username: "valid"}},
		{"short username", RegisterInput{Email: "a@example.com", Password: "password123", Username: "ab"}},
		{"username symbols", RegisterInput{Email: "a@example.com", Password: "password123", Username: "a-b-c"}},
		{"display name too short", RegisterInput{Email: "a@example.com", Password: "password123", Username: "valid", DisplayName: "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tt.in)
			requireCode(t, err, models.CodeValidation)
		})
	}
}

func TestAuthService_LoginAndResolve(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registered := registerUser(t, env, "bob@example.com", "bob")

	_, err := env.auth.Login(ctx, "bob@example.com", "wrongpass1")
	requireCode(t, err, models.CodeUnauthorized)
	_, err = env.auth.Login(ctx, "nobody@example.com", "password123")
	requireCode(t, err, models.CodeUnauthorized)
	assert.Contains(t, err.Error(), ErrInvalidCredentials)

	res, err := env.auth.Login(ctx, " BOB@example.com ", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, registered.ID, res.User.ID)
	assert.WithinDuration(t, env.clockNow.Load().Add(7*24*time.Hour), res.ExpiresAt, time.Second)

	user, err := env.auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, registered.ID, user.ID)

	again, err := env.auth.Login(ctx, "bob@example.com", "password123")
	require.NoError(t, err)

	stale, err := env.auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, stale, "logging in again replaces earlier sessions")

	var sessions int64
	require.NoError(t, env.db.Model(&models.Session{}).Count(&sessions).Error)
	assert.Equal(t, int64(1), sessions)

	require.NoError(t, env.auth.Logout(ctx, again.Token))
	gone, err := env.auth.ResolveSession(ctx, again.Token)
	require.NoError(t, err)
	assert.Nil(t, gone)

	assert.NoError(t, env.auth.Logout(ctx, "not-a-token"), "logout of an unknown token is a no-op")
}

func TestAuthService_ExpiredSessionIsDeleted(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerUser(t, env, "carol@example.com", "carol")

	res, err := env.auth.Login(ctx, "carol@example.com", "password123")
	require.NoError(t, err)

	env.advance(7*24*time.Hour + time.Minute)

	user, err := env.auth.ResolveSession(ctx, res.Token)
	require.NoError(t, err)
	assert.Nil(t, user)

	var sessions int64
	require.NoError(t, env.db.Model(&models.Session{}).Count(&sessions).Error)
	assert.Zero(t, sessions)
}

func TestAuthService_RejectsForeignTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerUser(t, env, "dave@example.com", "dave")
	res, err := env.auth.Login(ctx, "dave@example.com", "password123")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(res.Token, claims)
	require.NoError(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("some-other-secret"))
	require.NoError(t, err)
	user, err := env.auth.ResolveSession(ctx, forged)
	require.NoError(t, err)
	assert.Nil(t, user, "tokens signed with another key are anonymous")

	otherIssuer := *claims
	otherIssuer.Issuer = "someone-else"
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, otherIssuer).SignedString([]byte("test-secret-that-is-long-enough-123"))
	require.NoError(t, err)
	user, err = env.auth.ResolveSession(ctx, token)
	require.NoError(t, err)
	assert.Nil(t, user)

	noneToken, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	user, err = env.auth.ResolveSession(ctx, noneToken)
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = env.auth.ResolveSession(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestAuthService_PurgeExpiredSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	registerUser(t, env, "erin@example.com", "erin")
	_, err := env.auth.Login(ctx, "erin@example.com", "password123")
	require.NoError(t, err)

	n, err := env.auth.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.advance(8 * 24 * time.Hour)
	n, err = env.auth.PurgeExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
