package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func TestUserManagerCreate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "ALICE", user.NormalizedUserName)
	assert.Equal(t, "ALICE@EXAMPLE.COM", user.NormalizedEmail)
	assert.Equal(t, testScope.TenantID, user.TenantID)
	assert.NotEmpty(t, user.SecurityStamp)
	assert.NotEmpty(t, user.ConcurrencyStamp)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-password", user.PasswordHash)

	found, err := env.users.FindByName(ctx, "Alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserManagerDuplicateUsername(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	_, err = env.users.Register(ctx, identity.CreateUserModel{UserName: "ALICE", Email: "other@example.com"})
	require.Error(t, err)

	var agg *identity.ValidationAggregate
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 1)
	assert.Equal(t, identity.CodeDuplicateUserName, agg.Errors[0].Code)
}

func TestUserManagerSelfRenameIsNotDuplicate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	// Saving under the same name must pass the uniqueness check.
	user.PhoneNumber = ""
	require.NoError(t, env.users.Update(ctx, user))
}

func TestUserManagerUpdateRotatesConcurrencyStamp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	stampBefore := user.ConcurrencyStamp
	securityBefore := user.SecurityStamp

	user.UserName = "alice2"
	require.NoError(t, env.users.Update(ctx, user))

	assert.NotEqual(t, stampBefore, user.ConcurrencyStamp)
	assert.Equal(t, securityBefore, user.SecurityStamp, "plain update must not rotate the security stamp")
}

func TestUserManagerConcurrencyConflict(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	stale := *user
	user.UserName = "alice2"
	require.NoError(t, env.users.Update(ctx, user))

	stale.UserName = "alice3"
	stale.Email = "alice3@example.com"
	err = env.users.Update(ctx, &stale)
	require.Error(t, err)
	assert.ErrorIs(t, err, identity.ErrConcurrencyConflict)
}

func TestUserManagerUpdateSecurityStamp(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	before := user.SecurityStamp
	require.NoError(t, env.users.UpdateSecurityStamp(ctx, user))
	assert.NotEqual(t, before, user.SecurityStamp)
}

func TestUserManagerFindByIdentity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	confirmed, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName:       "alice",
		Email:          "alice@example.com",
		EmailConfirmed: true,
	})
	require.NoError(t, err)

	_, err = env.users.Register(ctx, identity.CreateUserModel{
		UserName: "bob",
		Email:    "bob@example.com",
	})
	require.NoError(t, err)

	tests := []struct {
		name         string
		identityType identity.IdentityType
		identity     string
		wantID       string
		wantNotFound bool
	}{
		{
			name:         "confirmed email resolves",
			identityType: identity.IdentityTypeEmail,
			identity:     "alice@example.com",
			wantID:       confirmed.ID,
		},
		{
			name:         "unconfirmed email is not found",
			identityType: identity.IdentityTypeEmail,
			identity:     "bob@example.com",
			wantNotFound: true,
		},
		{
			name:         "username resolves without confirmation",
			identityType: identity.IdentityTypeUsername,
			identity:     "bob",
			wantNotFound: false,
			wantID:       "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := env.users.FindByIdentity(ctx, tt.identityType, tt.identity)
			if tt.wantNotFound {
				require.Error(t, err)
				assert.True(t, identity.IsNotFound(err))
				return
			}
			require.NoError(t, err)
			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, user.ID)
			}
		})
	}
}

func TestUserManagerUnknownIdentityType(t *testing.T) {
	env := newTestEnv()

	_, err := env.users.FindByIdentity(context.Background(), "fingerprint", "whatever")
	require.Error(t, err)
	assert.False(t, identity.IsNotFound(err))
}

func TestUserManagerLockout(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.Lockout.MaxFailedAttempts = 3
	opts.Lockout.Duration = 10 * time.Minute

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnvWithOptions(opts, identity.WithClock(fixedClock(now)))
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "s3cret-password",
	})
	require.NoError(t, err)
	require.True(t, user.LockoutEnabled)

	for i := 0; i < 2; i++ {
		locked, err := env.users.AccessFailed(ctx, user)
		require.NoError(t, err)
		assert.False(t, locked)
	}

	locked, err := env.users.AccessFailed(ctx, user)
	require.NoError(t, err)
	assert.True(t, locked)
	assert.True(t, env.users.IsLockedOut(user))
	assert.Zero(t, user.AccessFailedCount)

	require.NoError(t, env.users.ResetAccessFailed(ctx, user))
	assert.False(t, env.users.IsLockedOut(user))
}

func TestUserManagerPasswordHistory(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "alice",
		Email:    "alice@example.com",
		Password: "first-password",
	})
	require.NoError(t, err)

	require.NoError(t, env.users.SetPassword(ctx, user, "second-password"))

	used, err := env.users.PasswordWasUsed(ctx, user, "first-password")
	require.NoError(t, err)
	assert.True(t, used)

	used, err = env.users.PasswordWasUsed(ctx, user, "never-used")
	require.NoError(t, err)
	assert.False(t, used)

	require.NoError(t, env.users.CheckPassword(user, "second-password"))
	assert.ErrorIs(t, env.users.CheckPassword(user, "first-password"), identity.ErrMismatchedHashAndPassword)
}

func TestUserManagerClosed(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.users.Close())

	_, err := env.users.FindByID(ctx, "any")
	assert.ErrorIs(t, err, identity.ErrManagerClosed)

	err = env.users.Create(ctx, &identity.User{UserName: "alice"})
	assert.ErrorIs(t, err, identity.ErrManagerClosed)

	// Close is idempotent.
	require.NoError(t, env.users.Close())
}

func TestUserManagerDeleteCascades(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	require.NoError(t, env.users.AddClaim(ctx, user, identity.NewClaim("team", "platform")))
	require.NoError(t, env.users.SetToken(ctx, user, "github", "refresh", "tok-1"))

	require.NoError(t, env.users.Delete(ctx, user))

	_, err = env.users.FindByID(ctx, user.ID)
	assert.True(t, identity.IsNotFound(err))

	_, err = env.users.GetToken(ctx, user, "github", "refresh")
	assert.True(t, identity.IsNotFound(err))
}

func TestUserManagerRoles(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	role := &identity.Role{Name: "admin"}
	require.NoError(t, env.roles.Create(ctx, role))

	require.NoError(t, env.users.AddToRole(ctx, user, role.ID))

	names, err := env.users.GetRoles(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, names)

	require.NoError(t, env.users.RemoveFromRole(ctx, user, role.ID))
	names, err = env.users.GetRoles(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, names)
}
