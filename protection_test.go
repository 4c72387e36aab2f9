package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func TestAESLookupProtectorDeterministic(t *testing.T) {
	protector := identity.NewAESLookupProtector([]byte("lookup-secret"))

	first, err := protector.Protect("k1", "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	second, err := protector.Protect("k1", "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, first, second, "equal inputs must produce equal ciphertexts")

	other, err := protector.Protect("k2", "ALICE@EXAMPLE.COM")
	require.NoError(t, err)
	assert.NotEqual(t, first, other, "different key ids must produce different ciphertexts")

	plain, err := protector.Unprotect("k1", first)
	require.NoError(t, err)
	assert.Equal(t, "ALICE@EXAMPLE.COM", plain)
}

func TestAESLookupProtectorEmptyKeyID(t *testing.T) {
	protector := identity.NewAESLookupProtector([]byte("lookup-secret"))

	out, err := protector.Protect("", "ALICE")
	require.NoError(t, err)
	assert.Equal(t, "ALICE", out)
}

func TestStaticKeyRingRotation(t *testing.T) {
	ring := identity.NewStaticKeyRing("k1")
	assert.Equal(t, "k1", ring.CurrentKeyID())

	ring.Rotate("k2")
	assert.Equal(t, "k2", ring.CurrentKeyID())
	assert.Equal(t, []string{"k1", "k2"}, ring.AllKeyIDs())
}

func TestUserManagerLookupProtection(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.Stores.ProtectPersonalData = true

	ring := identity.NewStaticKeyRing("k1")
	protector := identity.NewAESLookupProtector([]byte("lookup-secret"))
	env := newTestEnvWithOptions(opts, identity.WithLookupProtection(ring, protector))
	ctx := context.Background()

	user, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "ALICE", user.NormalizedUserName, "stored lookup values must be protected")

	found, err := env.users.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	found, err = env.users.FindByEmail(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestUserManagerLookupProtectionSurvivesRotation(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.Stores.ProtectPersonalData = true

	ring := identity.NewStaticKeyRing("k1")
	protector := identity.NewAESLookupProtector([]byte("lookup-secret"))
	env := newTestEnvWithOptions(opts, identity.WithLookupProtection(ring, protector))
	ctx := context.Background()

	before, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "alice",
		Email:    "alice@example.com",
	})
	require.NoError(t, err)

	ring.Rotate("k2")

	// Rows written under the historical key still resolve.
	found, err := env.users.FindByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, before.ID, found.ID)

	// New rows protect under the new current key and resolve too.
	after, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName: "bob",
		Email:    "bob@example.com",
	})
	require.NoError(t, err)

	found, err = env.users.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, after.ID, found.ID)

	_, err = env.users.FindByName(ctx, "nobody")
	assert.True(t, identity.IsNotFound(err))
}
