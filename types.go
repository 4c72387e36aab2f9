package identity

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the library needs. Callers plug in
// whatever they run in production; defLogger is used when nothing is set.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LookupNormalizer produces the canonical form of names and emails used for
// uniqueness checks and lookups.
type LookupNormalizer interface {
	NormalizeName(name string) string
	NormalizeEmail(email string) string
}

// PasswordHasher hashes and verifies passwords. The bcrypt implementation in
// this package is the default; swap it for argon2 or a remote vault as needed.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// KeyRing exposes the lookup-protection key ids. AllKeyIDs must return ids in
// a deterministic order and must be safe to call concurrently with rotation.
type KeyRing interface {
	CurrentKeyID() string
	AllKeyIDs() []string
}

// LookupProtector encrypts and decrypts normalized lookup keys per key-ring
// epoch. Protect must be deterministic for a given (keyID, plaintext) pair,
// otherwise equality lookups against stored ciphertexts cannot work.
type LookupProtector interface {
	Protect(keyID, plaintext string) (string, error)
	Unprotect(keyID, ciphertext string) (string, error)
}

// SignInHandler is invoked after a successful password check with the user's
// full claim set. Handlers run sequentially; an error aborts the remainder.
type SignInHandler interface {
	OnSignInSuccess(ctx context.Context, claims []Claim) error
}

// SignInHandlerFunc adapts a function to the SignInHandler interface.
type SignInHandlerFunc func(ctx context.Context, claims []Claim) error

func (f SignInHandlerFunc) OnSignInSuccess(ctx context.Context, claims []Claim) error {
	return f(ctx, claims)
}

// UserIDProvider is the minimal identity surface the token fabricator needs.
type UserIDProvider interface {
	GetID() string
}

// Clock returns the current time. Injected so token timestamps are testable.
type Clock func() time.Time

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] IDENTITY "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] IDENTITY "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] IDENTITY "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] IDENTITY "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
