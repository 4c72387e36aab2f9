package identity

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// IdentityType names the lookup key used to resolve a user at sign-in.
type IdentityType string

const (
	IdentityTypeUsername    IdentityType = "username"
	IdentityTypeEmail       IdentityType = "email"
	IdentityTypePhoneNumber IdentityType = "phone_number"
)

// UserManager drives the user lifecycle over a UserStore. Every mutating call
// runs the same pipeline: validate, stamp, normalize, persist. Managers are
// safe for concurrent use; Close makes every subsequent call fail fast.
type UserManager struct {
	managerCore

	store *UserStore
	opts  Options
	caps  StoreCapabilities

	// Hasher verifies and produces password hashes. Replace before first use
	// to switch algorithms.
	Hasher PasswordHasher

	// Validators run in order on every create and update; all of them run so
	// a single failed save reports every violation.
	Validators []UserValidator
}

// NewUserManager builds a user manager with the default validator pipeline
// and bcrypt hashing.
func NewUserManager(store *UserStore, opts Options, options ...ManagerOption) *UserManager {
	m := &UserManager{
		store:      store,
		opts:       opts,
		caps:       store.Capabilities(),
		Hasher:     BcryptHasher{},
		Validators: DefaultUserValidators(opts.User),
	}
	m.init(opts.Stores, options...)
	return m
}

// Count returns the number of persisted users in the tenant.
func (m *UserManager) Count(ctx context.Context) (uint64, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

// Register builds a user from a creation model, hashes the password when one
// is supplied, and creates it.
func (m *UserManager) Register(ctx context.Context, model CreateUserModel) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	user := NewUserFromModel(model)
	if model.Password != "" {
		hash, err := m.Hasher.HashPassword(model.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}
	user.LockoutEnabled = m.opts.Lockout.Enabled

	if err := m.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Create validates, stamps, normalizes, and persists a new user. The security
// stamp is rotated when the store supports stamps.
func (m *UserManager) Create(ctx context.Context, user *User) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, user); err != nil {
		return err
	}

	if m.caps.SecurityStamps {
		user.SecurityStamp = uuid.NewString()
	}
	user.ConcurrencyStamp = uuid.NewString()

	if err := m.normalize(user); err != nil {
		return err
	}
	return m.store.Create(ctx, user)
}

// Update validates, re-stamps the concurrency stamp, normalizes, and persists
// the user. The security stamp is untouched; rotate it explicitly through
// UpdateSecurityStamp.
func (m *UserManager) Update(ctx context.Context, user *User) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, user); err != nil {
		return err
	}
	if err := m.normalize(user); err != nil {
		return err
	}
	return m.persist(ctx, user)
}

// UpdateSecurityStamp rotates the user's security stamp, invalidating every
// artifact minted against the old one.
func (m *UserManager) UpdateSecurityStamp(ctx context.Context, user *User) error {
	if err := m.guard(); err != nil {
		return err
	}
	if !m.caps.SecurityStamps {
		return ErrNoSecurityStamps
	}

	user.SecurityStamp = uuid.NewString()
	return m.persist(ctx, user)
}

// SetPassword hashes and stores a new password, records the superseded hash
// in the password history, and rotates the security stamp.
func (m *UserManager) SetPassword(ctx context.Context, user *User, password string) error {
	if err := m.guard(); err != nil {
		return err
	}

	hash, err := m.Hasher.HashPassword(password)
	if err != nil {
		return err
	}

	if user.PasswordHash != "" {
		if err := m.store.AddPasswordHistory(ctx, user, user.PasswordHash); err != nil {
			return err
		}
	}

	user.PasswordHash = hash
	if m.caps.SecurityStamps {
		user.SecurityStamp = uuid.NewString()
	}
	return m.persist(ctx, user)
}

// CheckPassword verifies a cleartext password against the user's stored hash.
func (m *UserManager) CheckPassword(user *User, password string) error {
	if user.PasswordHash == "" {
		return ErrMismatchedHashAndPassword
	}
	return m.Hasher.ComparePasswordAndHash(password, user.PasswordHash)
}

// PasswordWasUsed reports whether the password matches any hash in the user's
// history. Reuse policies hook in here.
func (m *UserManager) PasswordWasUsed(ctx context.Context, user *User, password string) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}

	hashes, err := m.store.PasswordHistory(ctx, user)
	if err != nil {
		return false, err
	}
	for _, hash := range hashes {
		if err := m.Hasher.ComparePasswordAndHash(password, hash); err == nil {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the user and its dependent rows.
func (m *UserManager) Delete(ctx context.Context, user *User) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.Delete(ctx, user)
}

// FindByID resolves a user by id.
func (m *UserManager) FindByID(ctx context.Context, id string) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByID(ctx, id)
}

// FindByName resolves a user by name, normalizing first. On a miss with
// lookup protection enabled the lookup retries once per key-ring id.
func (m *UserManager) FindByName(ctx context.Context, name string) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	normalized := maybeNormalizeName(m.normalizer, name)
	return lookupProtected(&m.managerCore, normalized, func(value string) (*User, error) {
		return m.store.FindByName(ctx, value)
	})
}

// FindAllByName lists every user sharing a username. With lookup protection
// enabled the store is also queried under each key-ring id, so rows written
// before a rotation still surface.
func (m *UserManager) FindAllByName(ctx context.Context, name string) ([]*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	normalized := maybeNormalizeName(m.normalizer, name)
	users, err := m.store.FindAllByName(ctx, normalized)
	if err != nil {
		return nil, err
	}
	if !m.protect {
		return users, nil
	}

	seen := make(map[string]bool, len(users))
	for _, u := range users {
		seen[u.ID] = true
	}
	for _, keyID := range m.keyRing.AllKeyIDs() {
		protected, perr := m.protector.Protect(keyID, normalized)
		if perr != nil {
			return nil, goerrors.Wrap(perr, goerrors.CategoryInternal, "lookup protection failed")
		}
		more, err := m.store.FindAllByName(ctx, protected)
		if err != nil {
			return nil, err
		}
		for _, u := range more {
			if !seen[u.ID] {
				seen[u.ID] = true
				users = append(users, u)
			}
		}
	}
	return users, nil
}

// FindByEmail resolves a user by email, normalizing first, with the same
// key-ring retry behavior as FindByName.
func (m *UserManager) FindByEmail(ctx context.Context, email string) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	normalized := maybeNormalizeEmail(m.normalizer, email)
	return lookupProtected(&m.managerCore, normalized, func(value string) (*User, error) {
		return m.store.FindByEmail(ctx, value)
	})
}

// FindByPhoneNumber resolves a user by phone number. Phone numbers are not
// normalized or protected.
func (m *UserManager) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByPhoneNumber(ctx, phoneNumber)
}

// FindByLogin resolves a user through an external provider link.
func (m *UserManager) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByLogin(ctx, loginProvider, providerKey)
}

// FindByIdentity resolves a user by the named identity type. Email and phone
// lookups require the corresponding confirmed flag; an unconfirmed match is
// reported as not found so the sign-in surface leaks nothing.
func (m *UserManager) FindByIdentity(ctx context.Context, identityType IdentityType, identity string) (*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}

	switch identityType {
	case IdentityTypeUsername:
		return m.FindByName(ctx, identity)
	case IdentityTypeEmail:
		user, err := m.FindByEmail(ctx, identity)
		if err != nil {
			return nil, err
		}
		if !user.EmailConfirmed {
			return nil, ErrUserNotFound
		}
		return user, nil
	case IdentityTypePhoneNumber:
		user, err := m.FindByPhoneNumber(ctx, identity)
		if err != nil {
			return nil, err
		}
		if !user.PhoneNumberConfirmed {
			return nil, ErrUserNotFound
		}
		return user, nil
	default:
		return nil, goerrors.Wrap(ErrUnknownIdentityType, goerrors.CategoryBadInput, "identity type "+strings.TrimSpace(string(identityType)))
	}
}

// All lists every user in the tenant. Requires a queryable store.
func (m *UserManager) All(ctx context.Context) ([]*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.caps.Queryable {
		return nil, ErrStoreNotQueryable
	}
	return m.store.All(ctx)
}

// GetClaims returns the user's direct claims.
func (m *UserManager) GetClaims(ctx context.Context, user *User) ([]Claim, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.GetClaims(ctx, user)
}

// AddClaim attaches a claim to the user.
func (m *UserManager) AddClaim(ctx context.Context, user *User, claim Claim) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.AddClaim(ctx, user, claim)
}

// RemoveClaim detaches a claim; removing an absent claim is a no-op.
func (m *UserManager) RemoveClaim(ctx context.Context, user *User, claim Claim) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.RemoveClaim(ctx, user, claim)
}

// GetRoles returns the names of the user's roles.
func (m *UserManager) GetRoles(ctx context.Context, user *User) ([]string, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.GetRoles(ctx, user)
}

// AddToRole links the user to a role id.
func (m *UserManager) AddToRole(ctx context.Context, user *User, roleID string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.AddToRole(ctx, user, roleID)
}

// RemoveFromRole unlinks the user from a role id.
func (m *UserManager) RemoveFromRole(ctx context.Context, user *User, roleID string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.RemoveFromRole(ctx, user, roleID)
}

// AddLogin links an external provider identity to the user.
func (m *UserManager) AddLogin(ctx context.Context, user *User, login UserLogin) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.AddLogin(ctx, user, login)
}

// RemoveLogin unlinks an external provider identity.
func (m *UserManager) RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.RemoveLogin(ctx, user, loginProvider, providerKey)
}

// GetToken fetches a named per-provider token value.
func (m *UserManager) GetToken(ctx context.Context, user *User, loginProvider, name string) (string, error) {
	if err := m.guard(); err != nil {
		return "", err
	}
	return m.store.GetToken(ctx, user, loginProvider, name)
}

// SetToken stores a named per-provider token, replacing any prior value.
func (m *UserManager) SetToken(ctx context.Context, user *User, loginProvider, name, value string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.SetToken(ctx, user, loginProvider, name, value)
}

// RemoveToken drops a named per-provider token.
func (m *UserManager) RemoveToken(ctx context.Context, user *User, loginProvider, name string) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.RemoveToken(ctx, user, loginProvider, name)
}

// IsLockedOut reports whether the user is locked out right now.
func (m *UserManager) IsLockedOut(user *User) bool {
	if !m.opts.Lockout.Enabled || !user.LockoutEnabled {
		return false
	}
	return user.LockoutEnd != nil && user.LockoutEnd.After(m.now())
}

// AccessFailed records a failed sign-in attempt. Crossing the configured
// threshold starts a lockout window and resets the counter. Returns whether
// the user is now locked out.
func (m *UserManager) AccessFailed(ctx context.Context, user *User) (bool, error) {
	if err := m.guard(); err != nil {
		return false, err
	}
	if !m.opts.Lockout.Enabled || !user.LockoutEnabled {
		return false, nil
	}

	user.AccessFailedCount++
	locked := false
	if user.AccessFailedCount >= m.opts.Lockout.MaxFailedAttempts {
		end := m.now().Add(m.opts.Lockout.Duration)
		user.LockoutEnd = &end
		user.AccessFailedCount = 0
		locked = true
	}

	if err := m.persist(ctx, user); err != nil {
		return locked, err
	}
	return locked, nil
}

// ResetAccessFailed clears the failure counter and any lockout window after a
// successful sign-in.
func (m *UserManager) ResetAccessFailed(ctx context.Context, user *User) error {
	if err := m.guard(); err != nil {
		return err
	}
	if user.AccessFailedCount == 0 && user.LockoutEnd == nil {
		return nil
	}

	user.AccessFailedCount = 0
	user.LockoutEnd = nil
	return m.persist(ctx, user)
}

func (m *UserManager) validate(ctx context.Context, user *User) error {
	agg := &ValidationAggregate{}
	for _, v := range m.Validators {
		agg.Errors = append(agg.Errors, v.ValidateUser(ctx, m, user)...)
	}
	if agg.HasErrors() {
		return agg
	}
	return nil
}

func (m *UserManager) normalize(user *User) error {
	name, err := m.protectCurrent(maybeNormalizeName(m.normalizer, user.UserName))
	if err != nil {
		return err
	}
	email, err := m.protectCurrent(maybeNormalizeEmail(m.normalizer, user.Email))
	if err != nil {
		return err
	}

	user.NormalizedUserName = name
	user.NormalizedEmail = email
	return nil
}

// persist writes the user through the store's compare-and-swap update,
// re-stamping the concurrency stamp first.
func (m *UserManager) persist(ctx context.Context, user *User) error {
	priorStamp := user.ConcurrencyStamp
	user.ConcurrencyStamp = uuid.NewString()
	now := m.now()
	user.UpdatedAt = &now
	return m.store.Update(ctx, user, priorStamp)
}
