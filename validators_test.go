package identity_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-identity"
)

func validationCodes(err error, t *testing.T) []string {
	t.Helper()
	var agg *identity.ValidationAggregate
	require.ErrorAs(t, err, &agg)

	codes := make([]string, 0, len(agg.Errors))
	for _, fe := range agg.Errors {
		codes = append(codes, fe.Code)
	}
	return codes
}

func TestUsernameCharset(t *testing.T) {
	env := newTestEnv()

	_, err := env.users.Register(context.Background(), identity.CreateUserModel{
		UserName: "alice smith",
		Email:    "alice@example.com",
	})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeInvalidUserName)
}

func TestEmailFormat(t *testing.T) {
	env := newTestEnv()

	_, err := env.users.Register(context.Background(), identity.CreateUserModel{
		UserName: "alice",
		Email:    "not-an-email",
	})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeInvalidEmail)
}

func TestPhoneNumberValidity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.Register(ctx, identity.CreateUserModel{
		UserName:    "alice",
		Email:       "alice@example.com",
		PhoneNumber: "not-a-phone",
	})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeInvalidPhoneNumber)

	_, err = env.users.Register(ctx, identity.CreateUserModel{
		UserName:    "bob",
		Email:       "bob@example.com",
		PhoneNumber: "+14155552671",
	})
	require.NoError(t, err)
}

func TestIdentifierRequired(t *testing.T) {
	env := newTestEnv()

	_, err := env.users.Register(context.Background(), identity.CreateUserModel{})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeMissingIdentifier)
}

func TestMissingIdentifierAllowedWhenDisabled(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.User.RequireIdentifier = false
	env := newTestEnvWithOptions(opts)

	_, err := env.users.Register(context.Background(), identity.CreateUserModel{})
	require.NoError(t, err)
}

func TestRequiredEmail(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.User.RequireEmail = true
	env := newTestEnvWithOptions(opts)

	_, err := env.users.Register(context.Background(), identity.CreateUserModel{UserName: "alice"})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeMissingEmail)
}

func TestDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "shared@example.com"})
	require.NoError(t, err)

	_, err = env.users.Register(ctx, identity.CreateUserModel{UserName: "bob", Email: "Shared@Example.com"})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeDuplicateEmail)
}

func TestSharedUsernamesAllowedWithDistinctEmails(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.User.RequireUniqueUsername = false
	opts.User.RequireUniqueEmail = false
	env := newTestEnvWithOptions(opts)
	ctx := context.Background()

	_, err := env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@example.com"})
	require.NoError(t, err)

	// The username repeats but the email disambiguates.
	_, err = env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "alice@other.com"})
	require.NoError(t, err)

	// Same username and same email is a full duplicate.
	_, err = env.users.Register(ctx, identity.CreateUserModel{UserName: "alice", Email: "Alice@Example.com"})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeDuplicateUserName)

	matches, err := env.users.FindAllByName(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestApplicationNameCharset(t *testing.T) {
	opts := identity.DefaultOptions()
	opts.Application.AllowedApplicationNameCharacters = "abcdefghijklmnopqrstuvwxyz"
	env := newTestEnvWithOptions(opts)

	err := env.apps.Create(context.Background(), &identity.Application{Name: "Portal!"})
	require.Error(t, err)
	assert.Contains(t, validationCodes(err, t), identity.CodeInvalidApplicationName)
}
