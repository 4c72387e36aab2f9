package identity_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func tokenServiceEnv(t *testing.T) (*testEnv, *identity.TokenService) {
	t.Helper()

	env := newTestEnv()
	signIn := identity.NewSignInService(env.users, env.roles, testScope)

	opts := identity.DefaultTokenOptions()
	opts.SigningKey = "test-signing-key"
	fab := identity.NewTokenFabricator(opts)

	return env, identity.NewTokenService(signIn, fab, nil)
}

func TestTokenServiceIssueToken(t *testing.T) {
	env, service := tokenServiceEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName:       "alice",
		Email:          "alice@example.com",
		Password:       "s3cret-password",
		EmailConfirmed: true,
	})
	require.NoError(t, err)

	op := service.IssueToken(ctx, identity.TokenRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "s3cret-password",
	})

	require.True(t, op.Succeeded)
	require.NotEmpty(t, op.Data.Token)
	assert.Equal(t, user.ID, op.Data.Claims["userId"])
	assert.Equal(t, "alice", op.Data.Claims["userName"])

	verified := service.VerifyToken(op.Data.Token)
	require.True(t, verified.Succeeded)
	assert.Equal(t, user.ID, verified.Data["sub"])
	assert.Equal(t, "alice", verified.Data["userName"])
}

func TestTokenServiceRefusalPassesThrough(t *testing.T) {
	env, service := tokenServiceEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "alice",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	user.TwoFactorEnabled = true
	require.NoError(t, env.users.Update(ctx, user))

	op := service.IssueToken(ctx, identity.TokenRequest{
		IdentityType: identity.IdentityTypeUsername,
		Identity:     "alice",
		Password:     "s3cret-password",
	})

	require.True(t, op.Refused)
	assert.Equal(t, http.StatusUnauthorized, op.StatusHint)
	assert.Empty(t, op.Data.Token)
}

func TestTokenServiceUnknownUser(t *testing.T) {
	_, service := tokenServiceEnv(t)

	op := service.IssueToken(context.Background(), identity.TokenRequest{
		IdentityType: identity.IdentityTypeUsername,
		Identity:     "nobody",
		Password:     "whatever",
	})

	assert.False(t, op.Succeeded)
	assert.Equal(t, http.StatusNotFound, op.StatusHint)
}

func TestTokenServiceBadToken(t *testing.T) {
	_, service := tokenServiceEnv(t)

	op := service.VerifyToken("not-a-token")
	require.False(t, op.Succeeded)
	assert.Equal(t, http.StatusUnauthorized, op.StatusHint)
}
