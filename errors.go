package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeUnsupportedKeyType  = "UNSUPPORTED_KEY_TYPE"
	textCodeStoreInconsistency  = "STORE_INCONSISTENCY"
	textCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	textCodeManagerClosed       = "MANAGER_CLOSED"
	textCodeStoreNotQueryable   = "STORE_NOT_QUERYABLE"
	textCodeNoSecurityStamps    = "SECURITY_STAMPS_UNSUPPORTED"
	textCodeUnknownIdentityType = "UNKNOWN_IDENTITY_TYPE"
)

// ErrUserNotFound is returned when a user lookup finds nothing.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound)

// ErrRoleNotFound is returned when a role lookup finds nothing.
var ErrRoleNotFound = goerrors.New("role not found", goerrors.CategoryNotFound)

// ErrTenantNotFound is returned when a tenant lookup finds nothing.
var ErrTenantNotFound = goerrors.New("tenant not found", goerrors.CategoryNotFound)

// ErrApplicationNotFound is returned when an application lookup finds nothing.
var ErrApplicationNotFound = goerrors.New("application not found", goerrors.CategoryNotFound)

// ErrUnsupportedKeyType is returned when a store is asked to generate an id
// for a key kind it cannot produce (numeric keys must come from the store).
var ErrUnsupportedKeyType = goerrors.New("unsupported key type", goerrors.CategoryBadInput).
	WithTextCode(textCodeUnsupportedKeyType).
	WithCode(goerrors.CodeBadRequest)

// ErrStoreInconsistency is returned when an update or delete affects an
// unexpected number of rows. It signals a race or a store defect and is never
// swallowed.
var ErrStoreInconsistency = goerrors.New("store reported an unexpected affected row count", goerrors.CategoryInternal).
	WithTextCode(textCodeStoreInconsistency)

// ErrConcurrencyConflict is returned when a compare-and-swap update misses
// because the concurrency stamp changed underneath the caller. Retryable.
var ErrConcurrencyConflict = goerrors.New("entity was modified concurrently", goerrors.CategoryConflict).
	WithTextCode(textCodeConcurrencyConflict).
	WithCode(goerrors.CodeConflict)

// ErrManagerClosed is returned by every manager call after Close.
var ErrManagerClosed = goerrors.New("manager is closed", goerrors.CategoryOperation).
	WithTextCode(textCodeManagerClosed)

// ErrStoreNotQueryable is returned when queryable access is requested from a
// store that does not support listing. Configuration error, not recoverable.
var ErrStoreNotQueryable = goerrors.New("store does not support queryable access", goerrors.CategoryOperation).
	WithTextCode(textCodeStoreNotQueryable)

// ErrNoSecurityStamps is returned when a security-stamp rotation is requested
// from a store whose entities carry no stamp.
var ErrNoSecurityStamps = goerrors.New("store does not support security stamps", goerrors.CategoryOperation).
	WithTextCode(textCodeNoSecurityStamps)

// ErrUnknownIdentityType is returned when an identity lookup names a type the
// user manager does not recognize.
var ErrUnknownIdentityType = goerrors.New("unknown identity type", goerrors.CategoryBadInput).
	WithTextCode(textCodeUnknownIdentityType).
	WithCode(goerrors.CodeBadRequest)

// ErrNoEmptyString rejects empty passwords before hashing.
var ErrNoEmptyString = goerrors.New("value must not be an empty string", goerrors.CategoryValidation)

// ErrMismatchedHashAndPassword is returned when a password does not match its hash.
var ErrMismatchedHashAndPassword = goerrors.New("password does not match", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// wrapCancelled converts a context cancellation into a categorized error so
// callers see a cancellation outcome instead of stale data.
func wrapCancelled(err error, msg string) error {
	return goerrors.Wrap(err, goerrors.CategoryOperation, msg)
}
