package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// IsNotFound reports whether err is a not-found outcome from any store or
// manager lookup.
func IsNotFound(err error) bool {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return rich.Category == goerrors.CategoryNotFound
	}
	return false
}

// UserStore maps user operations onto DataStore calls, enforcing tenant
// scoping on every example. Lookups check the super-user shortcut before
// touching the backing store.
type UserStore struct {
	store      DataStore
	scope      Scope
	opts       StoreOptions
	caps       StoreCapabilities
	normalizer LookupNormalizer
	super      superUserSynthesizer
}

// UserStoreOption mutates a UserStore during construction.
type UserStoreOption func(*UserStore)

// WithSuperUser enables the synthesized super-user shortcut on lookups.
func WithSuperUser(opts SuperUserOptions, hasher PasswordHasher) UserStoreOption {
	return func(s *UserStore) {
		s.super = superUserSynthesizer{opts: opts, hasher: hasher, normalizer: s.normalizer}
	}
}

// NewUserStore builds a tenant-scoped user store over the given port.
func NewUserStore(store DataStore, scope Scope, opts StoreOptions, normalizer LookupNormalizer, options ...UserStoreOption) *UserStore {
	if normalizer == nil {
		normalizer = UppercaseNormalizer{}
	}

	s := &UserStore{
		store:      store,
		scope:      scope,
		opts:       opts,
		caps:       StoreCapabilities{SecurityStamps: true, Queryable: true},
		normalizer: normalizer,
	}

	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// SupportsSuperUser reports whether the super-user shortcut is active.
func (s *UserStore) SupportsSuperUser() bool { return s.super.enabled() }

// Capabilities reports the optional features this store supports.
func (s *UserStore) Capabilities() StoreCapabilities { return s.caps }

// Count returns the number of persisted users.
func (s *UserStore) Count(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx, CollectionUsers)
}

// Create persists a new user, assigning an id when absent.
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "user create cancelled")
	}

	user.TenantID = s.scope.TenantID
	if user.ConcurrencyStamp == "" {
		user.ConcurrencyStamp = uuid.NewString()
	}

	if user.ID == "" {
		id, err := s.generateUserID(user)
		if err != nil {
			return err
		}
		user.ID = id
	}

	outcome, err := s.store.Create(ctx, CollectionUsers, user)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist user")
	}
	if outcome == CreateOutcomeAlreadyExists {
		return goerrors.New("user already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}

	return nil
}

// Update overwrites the user row matched by (id, tenant, priorStamp). The
// concurrency stamp participates in the match, so a concurrent writer causes
// a conflict instead of a silent overwrite.
func (s *UserStore) Update(ctx context.Context, user *User, priorStamp string) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "user update cancelled")
	}

	user.TenantID = s.scope.TenantID
	if user.ConcurrencyStamp == "" {
		user.ConcurrencyStamp = uuid.NewString()
	}

	example := &User{ID: user.ID, TenantID: s.scope.TenantID, ConcurrencyStamp: priorStamp}
	affected, err := s.store.UpdateByExample(ctx, CollectionUsers, user, example)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update user")
	}

	return checkSingleRow(affected, ErrConcurrencyConflict)
}

// Delete removes the user and every dependent row: claims, role links,
// logins, tokens, and password history.
func (s *UserStore) Delete(ctx context.Context, user *User) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "user delete cancelled")
	}

	deleted, err := s.store.DeleteByExample(ctx, CollectionUsers, &User{ID: user.ID, TenantID: s.scope.TenantID})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
	}
	if err := checkSingleRow(deleted, ErrUserNotFound); err != nil {
		return err
	}

	cascades := []struct {
		collection string
		example    any
	}{
		{CollectionUserClaims, &UserClaim{UserID: user.ID, TenantID: s.scope.TenantID}},
		{CollectionUserRoles, &UserRoleLink{UserID: user.ID, TenantID: s.scope.TenantID}},
		{CollectionUserLogins, &UserLogin{UserID: user.ID, TenantID: s.scope.TenantID}},
		{CollectionUserTokens, &UserToken{UserID: user.ID, TenantID: s.scope.TenantID}},
		{CollectionPasswordHistory, &PasswordHistory{UserID: user.ID, TenantID: s.scope.TenantID}},
	}
	for _, c := range cascades {
		if _, err := s.store.DeleteByExample(ctx, c.collection, c.example); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete dependent rows for user")
		}
	}

	return nil
}

// FindByID resolves a user by id, honoring the super-user shortcut.
func (s *UserStore) FindByID(ctx context.Context, id string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user lookup cancelled")
	}

	if s.super.matchesID(id) {
		return s.super.instance(), nil
	}

	user := &User{}
	found, err := s.store.QuerySingleByExample(ctx, CollectionUsers, &User{ID: id, TenantID: s.scope.TenantID}, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByName resolves a user by normalized username.
func (s *UserStore) FindByName(ctx context.Context, normalizedUserName string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user lookup cancelled")
	}

	if s.super.matchesName(normalizedUserName) {
		return s.super.instance(), nil
	}

	user := &User{}
	example := &User{NormalizedUserName: normalizedUserName, TenantID: s.scope.TenantID}
	found, err := s.store.QuerySingleByExample(ctx, CollectionUsers, example, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindAllByName returns every user sharing a normalized username. Used by the
// uniqueness validator when unique usernames are not enforced.
func (s *UserStore) FindAllByName(ctx context.Context, normalizedUserName string) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user lookup cancelled")
	}

	if s.super.matchesName(normalizedUserName) {
		return []*User{s.super.instance()}, nil
	}

	var users []*User
	example := &User{NormalizedUserName: normalizedUserName, TenantID: s.scope.TenantID}
	if err := s.store.QueryByExample(ctx, CollectionUsers, example, &users); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}
	return users, nil
}

// FindByEmail resolves a user by normalized email.
func (s *UserStore) FindByEmail(ctx context.Context, normalizedEmail string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user lookup cancelled")
	}

	if s.super.matchesEmail(normalizedEmail) {
		return s.super.instance(), nil
	}

	user := &User{}
	example := &User{NormalizedEmail: normalizedEmail, TenantID: s.scope.TenantID}
	found, err := s.store.QuerySingleByExample(ctx, CollectionUsers, example, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByPhoneNumber resolves a user by phone number.
func (s *UserStore) FindByPhoneNumber(ctx context.Context, phoneNumber string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user lookup cancelled")
	}

	if s.super.matchesPhone(phoneNumber) {
		return s.super.instance(), nil
	}

	user := &User{}
	example := &User{PhoneNumber: phoneNumber, TenantID: s.scope.TenantID}
	found, err := s.store.QuerySingleByExample(ctx, CollectionUsers, example, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user lookup failed")
	}
	if !found {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// FindByLogin resolves a user through an external login link.
func (s *UserStore) FindByLogin(ctx context.Context, loginProvider, providerKey string) (*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user lookup cancelled")
	}

	login := &UserLogin{}
	example := &UserLogin{LoginProvider: loginProvider, ProviderKey: providerKey, TenantID: s.scope.TenantID}
	found, err := s.store.QuerySingleByExample(ctx, CollectionUserLogins, example, login)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "login lookup failed")
	}
	if !found {
		return nil, ErrUserNotFound
	}

	return s.FindByID(ctx, login.UserID)
}

// All lists every user in the tenant.
func (s *UserStore) All(ctx context.Context) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "user listing cancelled")
	}

	var users []*User
	if err := s.store.QueryByExample(ctx, CollectionUsers, &User{TenantID: s.scope.TenantID}, &users); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user listing failed")
	}
	return users, nil
}

// GetClaims returns the user's direct claims.
func (s *UserStore) GetClaims(ctx context.Context, user *User) ([]Claim, error) {
	var rows []*UserClaim
	example := &UserClaim{UserID: user.ID, TenantID: s.scope.TenantID}
	if err := s.store.QueryByExample(ctx, CollectionUserClaims, example, &rows); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "claim lookup failed")
	}

	claims := make([]Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, Claim{Type: row.ClaimType, Value: row.Value, ValueType: row.ValueType})
	}
	return claims, nil
}

// AddClaim attaches a claim to the user.
func (s *UserStore) AddClaim(ctx context.Context, user *User, claim Claim) error {
	row := &UserClaim{
		TenantID:  s.scope.TenantID,
		UserID:    user.ID,
		ClaimType: claim.Type,
		Value:     claim.Value,
		ValueType: claim.ValueType,
	}
	if _, err := s.store.Create(ctx, CollectionUserClaims, row); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add claim")
	}
	return nil
}

// RemoveClaim detaches a claim; removing an absent claim is a no-op.
func (s *UserStore) RemoveClaim(ctx context.Context, user *User, claim Claim) error {
	example := &UserClaim{
		TenantID:  s.scope.TenantID,
		UserID:    user.ID,
		ClaimType: claim.Type,
		Value:     claim.Value,
	}
	if _, err := s.store.DeleteByExample(ctx, CollectionUserClaims, example); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove claim")
	}
	return nil
}

// GetRoles returns the names of the user's roles.
func (s *UserStore) GetRoles(ctx context.Context, user *User) ([]string, error) {
	var links []*UserRoleLink
	example := &UserRoleLink{UserID: user.ID, TenantID: s.scope.TenantID}
	if err := s.store.QueryByExample(ctx, CollectionUserRoles, example, &links); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role lookup failed")
	}

	names := make([]string, 0, len(links))
	for _, link := range links {
		role := &Role{}
		found, err := s.store.QuerySingleByExample(ctx, CollectionRoles, &Role{ID: link.RoleID}, role)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role lookup failed")
		}
		if found {
			names = append(names, role.Name)
		}
	}
	return names, nil
}

// AddToRole links the user to a role.
func (s *UserStore) AddToRole(ctx context.Context, user *User, roleID string) error {
	link := &UserRoleLink{TenantID: s.scope.TenantID, UserID: user.ID, RoleID: roleID}
	if _, err := s.store.Create(ctx, CollectionUserRoles, link); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add role")
	}
	return nil
}

// RemoveFromRole unlinks the user from a role.
func (s *UserStore) RemoveFromRole(ctx context.Context, user *User, roleID string) error {
	example := &UserRoleLink{TenantID: s.scope.TenantID, UserID: user.ID, RoleID: roleID}
	if _, err := s.store.DeleteByExample(ctx, CollectionUserRoles, example); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove role")
	}
	return nil
}

// AddLogin links an external provider identity.
func (s *UserStore) AddLogin(ctx context.Context, user *User, login UserLogin) error {
	login.TenantID = s.scope.TenantID
	login.UserID = user.ID
	if _, err := s.store.Create(ctx, CollectionUserLogins, &login); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add login")
	}
	return nil
}

// RemoveLogin unlinks an external provider identity.
func (s *UserStore) RemoveLogin(ctx context.Context, user *User, loginProvider, providerKey string) error {
	example := &UserLogin{
		TenantID:      s.scope.TenantID,
		UserID:        user.ID,
		LoginProvider: loginProvider,
		ProviderKey:   providerKey,
	}
	if _, err := s.store.DeleteByExample(ctx, CollectionUserLogins, example); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove login")
	}
	return nil
}

// GetToken fetches a named per-provider token value.
func (s *UserStore) GetToken(ctx context.Context, user *User, loginProvider, name string) (string, error) {
	token := &UserToken{}
	example := &UserToken{
		TenantID:      s.scope.TenantID,
		UserID:        user.ID,
		LoginProvider: loginProvider,
		Name:          name,
	}
	found, err := s.store.QuerySingleByExample(ctx, CollectionUserTokens, example, token)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "token lookup failed")
	}
	if !found {
		return "", goerrors.New("user token not found", goerrors.CategoryNotFound)
	}
	return token.Value, nil
}

// SetToken stores a named per-provider token, replacing any prior value.
func (s *UserStore) SetToken(ctx context.Context, user *User, loginProvider, name, value string) error {
	if err := s.RemoveToken(ctx, user, loginProvider, name); err != nil {
		return err
	}

	token := &UserToken{
		TenantID:      s.scope.TenantID,
		UserID:        user.ID,
		LoginProvider: loginProvider,
		Name:          name,
		Value:         value,
	}
	if _, err := s.store.Create(ctx, CollectionUserTokens, token); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to store token")
	}
	return nil
}

// RemoveToken drops a named per-provider token.
func (s *UserStore) RemoveToken(ctx context.Context, user *User, loginProvider, name string) error {
	example := &UserToken{
		TenantID:      s.scope.TenantID,
		UserID:        user.ID,
		LoginProvider: loginProvider,
		Name:          name,
	}
	if _, err := s.store.DeleteByExample(ctx, CollectionUserTokens, example); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove token")
	}
	return nil
}

// AddPasswordHistory records a superseded password hash.
func (s *UserStore) AddPasswordHistory(ctx context.Context, user *User, passwordHash string) error {
	row := &PasswordHistory{TenantID: s.scope.TenantID, UserID: user.ID, PasswordHash: passwordHash}
	if _, err := s.store.Create(ctx, CollectionPasswordHistory, row); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to record password history")
	}
	return nil
}

// PasswordHistory returns the user's prior password hashes.
func (s *UserStore) PasswordHistory(ctx context.Context, user *User) ([]string, error) {
	var rows []*PasswordHistory
	example := &PasswordHistory{UserID: user.ID, TenantID: s.scope.TenantID}
	if err := s.store.QueryByExample(ctx, CollectionPasswordHistory, example, &rows); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "password history lookup failed")
	}

	hashes := make([]string, 0, len(rows))
	for _, row := range rows {
		hashes = append(hashes, row.PasswordHash)
	}
	return hashes, nil
}

func (s *UserStore) generateUserID(user *User) (string, error) {
	if s.opts.DeterministicUserIDs && user.Email != "" {
		return DeterministicKey(user.Email)
	}
	return GenerateKey(s.opts.KeyKind)
}

// checkSingleRow converts an affected-row count into the appropriate error:
// zero rows means the row vanished or the stamp mismatched; more than one
// means the store violated a structural assumption. Production builds report
// both instead of asserting.
func checkSingleRow(affected int64, onZero error) error {
	switch {
	case affected == 1:
		return nil
	case affected == 0:
		return onZero
	default:
		return ErrStoreInconsistency
	}
}
