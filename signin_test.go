package identity_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func signInEnv(t *testing.T, options ...identity.SignInOption) (*testEnv, *identity.SignInService) {
	t.Helper()
	env := newTestEnv()
	service := identity.NewSignInService(env.users, env.roles, testScope, options...)
	return env, service
}

func registerSignInUser(t *testing.T, env *testEnv) *identity.User {
	t.Helper()
	user, err := env.users.Register(context.Background(), identity.CreateUserModel{
		UserName:       "alice",
		Email:          "alice@example.com",
		Password:       "s3cret-password",
		EmailConfirmed: true,
	})
	require.NoError(t, err)
	return user
}

func TestSignInSuccess(t *testing.T) {
	env, service := signInEnv(t)
	user := registerSignInUser(t, env)
	ctx := context.Background()

	role := &identity.Role{Name: "admin"}
	require.NoError(t, env.roles.Create(ctx, role))
	require.NoError(t, env.roles.AddClaim(ctx, role, identity.NewClaim("userPermission", "users:write")))
	require.NoError(t, env.users.AddToRole(ctx, user, role.ID))
	require.NoError(t, env.users.AddClaim(ctx, user, identity.NewClaim("team", "platform")))

	op := service.SignIn(ctx, identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "s3cret-password",
	})

	require.True(t, op.Succeeded)
	require.NotNil(t, op.Data.User)
	assert.Equal(t, user.ID, op.Data.User.ID)

	projected := identity.ProjectClaims(op.Data.Claims)
	assert.Equal(t, user.ID, projected["userId"])
	assert.Equal(t, "alice", projected["userName"])
	assert.Equal(t, "alice@example.com", projected["userEmail"])
	assert.Equal(t, testScope.TenantID, projected["tenantId"])
	assert.Equal(t, testScope.ApplicationName, projected["appName"])
	assert.Equal(t, "admin", projected["userRole"])
	assert.Equal(t, "users:write", projected["userPermission"])
	assert.Equal(t, "platform", projected["team"])
}

func TestSignInUnknownUser(t *testing.T) {
	_, service := signInEnv(t)

	op := service.SignIn(context.Background(), identity.SignInRequest{
		IdentityType: identity.IdentityTypeUsername,
		Identity:     "nobody",
		Password:     "whatever",
	})

	assert.False(t, op.Succeeded)
	assert.Equal(t, http.StatusNotFound, op.StatusHint)
}

func TestSignInUnconfirmedEmailIsNotFound(t *testing.T) {
	env, service := signInEnv(t)
	ctx := context.Background()

	_, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "bob",
		Email:    "bob@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	op := service.SignIn(ctx, identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "bob@example.com",
		Password:     "s3cret-password",
	})

	assert.False(t, op.Succeeded)
	assert.Equal(t, http.StatusNotFound, op.StatusHint)

	// The same credentials resolve by username.
	op = service.SignIn(ctx, identity.SignInRequest{
		IdentityType: identity.IdentityTypeUsername,
		Identity:     "bob",
		Password:     "s3cret-password",
	})
	assert.True(t, op.Succeeded)
}

func TestSignInWrongPassword(t *testing.T) {
	env, service := signInEnv(t)
	registerSignInUser(t, env)

	op := service.SignIn(context.Background(), identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "wrong",
	})

	assert.False(t, op.Succeeded)
	assert.False(t, op.Refused)
	assert.Equal(t, http.StatusUnauthorized, op.StatusHint)
}

func TestSignInLockedOut(t *testing.T) {
	env, service := signInEnv(t)
	registerSignInUser(t, env)
	ctx := context.Background()

	attempt := identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "wrong",
	}

	// Default lockout threshold is five attempts.
	var op identity.Operation[identity.SignInResult]
	for i := 0; i < 5; i++ {
		op = service.SignIn(ctx, attempt)
	}

	require.True(t, op.Refused)
	entry, ok := op.FirstError()
	require.True(t, ok)
	assert.Equal(t, identity.RefusalLockedOut, entry.Message)

	// Even the right password is refused while locked out.
	op = service.SignIn(ctx, identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "s3cret-password",
	})
	require.True(t, op.Refused)
	entry, ok = op.FirstError()
	require.True(t, ok)
	assert.Equal(t, identity.RefusalLockedOut, entry.Message)
}

func TestSignInRefusalConditionsAccumulate(t *testing.T) {
	env, service := signInEnv(t, identity.WithRequireConfirmedAccount(true))
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "carol",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	user.TwoFactorEnabled = true
	require.NoError(t, env.users.Update(ctx, user))

	op := service.SignIn(ctx, identity.SignInRequest{
		IdentityType: identity.IdentityTypeUsername,
		Identity:     "carol",
		Password:     "s3cret-password",
	})

	require.True(t, op.Refused)
	require.Len(t, op.Errors, 2)

	messages := []string{op.Errors[0].Message, op.Errors[1].Message}
	assert.Contains(t, messages, identity.RefusalNotAllowed)
	assert.Contains(t, messages, identity.RefusalNeeds2FA)
}

func TestSignInHandlerAborts(t *testing.T) {
	env, service := signInEnv(t, identity.WithSignInHandlers(
		identity.SignInHandlerFunc(func(ctx context.Context, claims []identity.Claim) error {
			return assert.AnError
		}),
	))
	registerSignInUser(t, env)

	op := service.SignIn(context.Background(), identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "s3cret-password",
	})

	assert.False(t, op.Succeeded)
	assert.Equal(t, http.StatusInternalServerError, op.StatusHint)

	// The handler error never leaks to the caller.
	entry, ok := op.FirstError()
	require.True(t, ok)
	assert.Equal(t, identity.CodeInternalError, entry.Code)
	assert.Equal(t, "an internal error occurred", entry.Message)
}

func TestSignInResetsFailureCountOnSuccess(t *testing.T) {
	env, service := signInEnv(t)
	user := registerSignInUser(t, env)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		service.SignIn(ctx, identity.SignInRequest{
			IdentityType: identity.IdentityTypeEmail,
			Identity:     "alice@example.com",
			Password:     "wrong",
		})
	}

	op := service.SignIn(ctx, identity.SignInRequest{
		IdentityType: identity.IdentityTypeEmail,
		Identity:     "alice@example.com",
		Password:     "s3cret-password",
	})
	require.True(t, op.Succeeded)

	refreshed, err := env.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Zero(t, refreshed.AccessFailedCount)
}
