package identity

import "context"

// Collection names every persisted record set. Adapters may map them onto
// tables, documents, or plain maps.
const (
	CollectionUsers           = "identity_users"
	CollectionRoles           = "identity_roles"
	CollectionTenants         = "identity_tenants"
	CollectionApplications    = "identity_applications"
	CollectionUserClaims      = "identity_user_claims"
	CollectionRoleClaims      = "identity_role_claims"
	CollectionUserRoles       = "identity_user_roles"
	CollectionUserLogins      = "identity_user_logins"
	CollectionUserTokens      = "identity_user_tokens"
	CollectionPasswordHistory = "identity_password_history"
)

// CreateOutcome is the result of a Create call.
type CreateOutcome int

const (
	// CreateOutcomeCreated means the record was inserted.
	CreateOutcomeCreated CreateOutcome = iota
	// CreateOutcomeAlreadyExists means a record with the same key exists.
	CreateOutcomeAlreadyExists
)

// DataStore is the only abstraction over the physical database. An "example"
// is a partial record of the collection's type: every non-zero field becomes
// an equality predicate. No SQL or query language leaks above this port.
//
// Every operation must observe ctx and fail fast with the cancellation error
// when ctx is already done.
type DataStore interface {
	// Count returns the number of records in a collection.
	Count(ctx context.Context, collection string) (uint64, error)

	// Create inserts record into collection.
	Create(ctx context.Context, collection string, record any) (CreateOutcome, error)

	// UpdateByExample replaces the matching records with record and returns
	// the affected row count. Replacement is whole-record so callers can
	// clear fields back to their zero values.
	UpdateByExample(ctx context.Context, collection string, record, example any) (int64, error)

	// DeleteByExample removes matching records and returns the affected count.
	DeleteByExample(ctx context.Context, collection string, example any) (int64, error)

	// QueryByExample scans matching records into dest, which must be a
	// pointer to a slice of the collection's record type. A nil example
	// matches everything.
	QueryByExample(ctx context.Context, collection string, example, dest any) error

	// QuerySingleByExample scans the first matching record into dest, a
	// pointer to the record type, reporting whether anything matched.
	QuerySingleByExample(ctx context.Context, collection string, example, dest any) (bool, error)
}
