package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/memstore"
)

func newSuperUserEnv(superOpts identity.SuperUserOptions) *identity.UserManager {
	opts := identity.DefaultOptions()
	store := memstore.New()
	userStore := identity.NewUserStore(
		store,
		testScope,
		opts.Stores,
		identity.UppercaseNormalizer{},
		identity.WithSuperUser(superOpts, identity.BcryptHasher{}),
	)
	return identity.NewUserManager(userStore, opts)
}

func TestSuperUserLookupShortcut(t *testing.T) {
	users := newSuperUserEnv(identity.SuperUserOptions{
		Enabled:  true,
		Password: "super-secret",
	})
	ctx := context.Background()

	byID, err := users.FindByID(ctx, identity.SuperUserID)
	require.NoError(t, err)
	assert.Equal(t, identity.SuperUserID, byID.ID)
	assert.True(t, byID.EmailConfirmed)
	assert.True(t, byID.PhoneNumberConfirmed)
	assert.Equal(t, identity.SuperUserSecurityStamp, byID.SecurityStamp)

	byName, err := users.FindByName(ctx, "superuser")
	require.NoError(t, err)
	assert.Equal(t, identity.SuperUserID, byName.ID)

	byEmail, err := users.FindByEmail(ctx, "superuser@email.com")
	require.NoError(t, err)
	assert.Equal(t, identity.SuperUserID, byEmail.ID)

	byPhone, err := users.FindByPhoneNumber(ctx, "9999999999")
	require.NoError(t, err)
	assert.Equal(t, identity.SuperUserID, byPhone.ID)

	require.NoError(t, users.CheckPassword(byID, "super-secret"))
	assert.Error(t, users.CheckPassword(byID, "wrong"))
}

func TestSuperUserWithoutPasswordStaysClosed(t *testing.T) {
	users := newSuperUserEnv(identity.SuperUserOptions{Enabled: true})

	user, err := users.FindByID(context.Background(), identity.SuperUserID)
	require.NoError(t, err)

	// A random hash is minted so the account never carries an empty hash.
	assert.NotEmpty(t, user.PasswordHash)
	assert.Error(t, users.CheckPassword(user, ""))
	assert.Error(t, users.CheckPassword(user, "guess"))
}

func TestSuperUserDisabled(t *testing.T) {
	users := newSuperUserEnv(identity.SuperUserOptions{Enabled: false})

	_, err := users.FindByID(context.Background(), identity.SuperUserID)
	assert.True(t, identity.IsNotFound(err))
}

func TestSuperUserPrecedesStoredRows(t *testing.T) {
	users := newSuperUserEnv(identity.SuperUserOptions{
		Enabled:  true,
		Username: "root",
		Email:    "root@example.com",
	})
	ctx := context.Background()

	// A persisted user cannot shadow the super-user identity.
	impostor := &identity.User{
		ID:       "impostor-1",
		UserName: "decoy",
		Email:    "decoy@example.com",
	}
	require.NoError(t, users.Create(ctx, impostor))

	found, err := users.FindByName(ctx, "ROOT")
	require.NoError(t, err)
	assert.Equal(t, identity.SuperUserID, found.ID)

	found, err = users.FindByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, identity.SuperUserID, found.ID)
}
