package identity

import "time"

// UserOptions controls user validation rules.
type UserOptions struct {
	// AllowedUserNameCharacters is the allowed charset for usernames. Empty
	// disables the charset check.
	AllowedUserNameCharacters string
	RequireUsername           bool
	RequireUniqueUsername     bool
	RequireEmail              bool
	RequireUniqueEmail        bool
	RequirePhoneNumber        bool
	RequireUniquePhoneNumber  bool
	// RequireIdentifier demands at least one of username, email, or phone.
	RequireIdentifier bool
}

// TenantOptions controls tenant-name validation.
type TenantOptions struct {
	AllowedTenantNameCharacters string
}

// ApplicationOptions controls application-name validation.
type ApplicationOptions struct {
	AllowedApplicationNameCharacters string
}

// RoleOptions controls role-name validation.
type RoleOptions struct {
	AllowedRoleNameCharacters string
}

// LockoutOptions controls the lockout-on-failure policy applied during
// sign-in.
type LockoutOptions struct {
	Enabled           bool
	MaxFailedAttempts int
	Duration          time.Duration
}

// StoreOptions controls storage behavior shared by all entity stores.
type StoreOptions struct {
	// KeyKind selects how ids are generated at create time.
	KeyKind KeyKind
	// ProtectPersonalData enables lookup protection of normalized names and
	// emails through the configured protector and key ring.
	ProtectPersonalData bool
	// DeterministicUserIDs derives user ids from the email address instead of
	// random UUIDs, so re-registration yields a stable id.
	DeterministicUserIDs bool
}

// Options is the root identity configuration, applied once at startup.
type Options struct {
	User        UserOptions
	Tenant      TenantOptions
	Application ApplicationOptions
	Role        RoleOptions
	Lockout     LockoutOptions
	Stores      StoreOptions
	Claims      ClaimOptions
}

// ClaimOptions names the claim types projected for identities. All fields
// have defaults; override them to match an existing token consumer.
type ClaimOptions struct {
	UserIDClaim          string
	UserNameClaim        string
	EmailClaim           string
	RoleClaim            string
	PermissionClaim      string
	TenantIDClaim        string
	TenantNameClaim      string
	ApplicationIDClaim   string
	ApplicationNameClaim string
}

// TokenOptions configures the token fabricator.
type TokenOptions struct {
	Issuer            string
	Audience          string
	TimeToLiveSeconds int
	Encrypt           bool
	ClockSkewSeconds  int
	// SigningKey is the symmetric signing key material. Empty means the
	// fabricator self-generates an ephemeral key at first use and logs a
	// warning: tokens issued before a restart become unverifiable after it.
	SigningKey string
	// EncryptingKey defaults to the signing key material when empty.
	EncryptingKey string
}

// SuperUserOptions configures the synthesized, never-persisted super user.
// When enabled, lookups matching the configured username, email, or phone
// short-circuit to the well-known identity before touching the store.
type SuperUserOptions struct {
	Enabled     bool
	Username    string
	Password    string
	Email       string
	PhoneNumber string
}

// DefaultClaimOptions returns the default claim type names.
func DefaultClaimOptions() ClaimOptions {
	return ClaimOptions{
		UserIDClaim:          ClaimUserID,
		UserNameClaim:        ClaimUserName,
		EmailClaim:           ClaimEmail,
		RoleClaim:            ClaimRole,
		PermissionClaim:      ClaimPermission,
		TenantIDClaim:        ClaimTenantID,
		TenantNameClaim:      ClaimTenantName,
		ApplicationIDClaim:   ClaimApplicationID,
		ApplicationNameClaim: ClaimApplicationName,
	}
}

// DefaultOptions returns the configuration used when the caller supplies
// nothing. There is no mutable process-wide state behind this: each call
// returns a fresh value.
func DefaultOptions() Options {
	return Options{
		User: UserOptions{
			AllowedUserNameCharacters: "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-._@+",
			RequireUniqueUsername:     true,
			RequireUniqueEmail:        true,
			RequireIdentifier:         true,
		},
		Lockout: LockoutOptions{
			Enabled:           true,
			MaxFailedAttempts: 5,
			Duration:          5 * time.Minute,
		},
		Stores: StoreOptions{
			KeyKind: KeyKindUUID,
		},
		Claims: DefaultClaimOptions(),
	}
}

// DefaultTokenOptions returns the default token issuance configuration.
func DefaultTokenOptions() TokenOptions {
	return TokenOptions{
		Issuer:            "https://mysite.com",
		Audience:          "https://mysite.com",
		TimeToLiveSeconds: 180,
		ClockSkewSeconds:  10,
	}
}
