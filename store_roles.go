package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// RoleStore maps role operations onto DataStore calls. Roles are scoped to
// the application resolved for the current request.
type RoleStore struct {
	store DataStore
	scope Scope
	opts  StoreOptions
	caps  StoreCapabilities
}

// NewRoleStore builds an application-scoped role store.
func NewRoleStore(store DataStore, scope Scope, opts StoreOptions) *RoleStore {
	return &RoleStore{
		store: store,
		scope: scope,
		opts:  opts,
		// Roles carry no security stamp.
		caps: StoreCapabilities{Queryable: true},
	}
}

// Capabilities reports the optional features this store supports.
func (s *RoleStore) Capabilities() StoreCapabilities { return s.caps }

// Count returns the number of roles in the application.
func (s *RoleStore) Count(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx, CollectionRoles)
}

// Create persists a new role, assigning an id when absent.
func (s *RoleStore) Create(ctx context.Context, role *Role) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "role create cancelled")
	}

	role.ApplicationID = s.scope.ApplicationID
	if role.ConcurrencyStamp == "" {
		role.ConcurrencyStamp = uuid.NewString()
	}

	if role.ID == "" {
		id, err := GenerateKey(s.opts.KeyKind)
		if err != nil {
			return err
		}
		role.ID = id
	}

	outcome, err := s.store.Create(ctx, CollectionRoles, role)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist role")
	}
	if outcome == CreateOutcomeAlreadyExists {
		return goerrors.New("role already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}
	return nil
}

// Update overwrites the role matched by (id, application, priorStamp).
func (s *RoleStore) Update(ctx context.Context, role *Role, priorStamp string) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "role update cancelled")
	}

	role.ApplicationID = s.scope.ApplicationID
	if role.ConcurrencyStamp == "" {
		role.ConcurrencyStamp = uuid.NewString()
	}

	example := &Role{ID: role.ID, ApplicationID: s.scope.ApplicationID, ConcurrencyStamp: priorStamp}
	affected, err := s.store.UpdateByExample(ctx, CollectionRoles, role, example)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update role")
	}
	return checkSingleRow(affected, ErrConcurrencyConflict)
}

// Delete removes the role, its claims, and any user links pointing at it.
func (s *RoleStore) Delete(ctx context.Context, role *Role) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "role delete cancelled")
	}

	deleted, err := s.store.DeleteByExample(ctx, CollectionRoles, &Role{ID: role.ID, ApplicationID: s.scope.ApplicationID})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete role")
	}
	if err := checkSingleRow(deleted, ErrRoleNotFound); err != nil {
		return err
	}

	if _, err := s.store.DeleteByExample(ctx, CollectionRoleClaims, &RoleClaim{RoleID: role.ID, ApplicationID: s.scope.ApplicationID}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete role claims")
	}
	if _, err := s.store.DeleteByExample(ctx, CollectionUserRoles, &UserRoleLink{RoleID: role.ID}); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete role links")
	}
	return nil
}

// FindByID resolves a role by id.
func (s *RoleStore) FindByID(ctx context.Context, id string) (*Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "role lookup cancelled")
	}

	role := &Role{}
	found, err := s.store.QuerySingleByExample(ctx, CollectionRoles, &Role{ID: id, ApplicationID: s.scope.ApplicationID}, role)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role lookup failed")
	}
	if !found {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// FindByName resolves a role by normalized name.
func (s *RoleStore) FindByName(ctx context.Context, normalizedName string) (*Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "role lookup cancelled")
	}

	role := &Role{}
	example := &Role{NormalizedName: normalizedName, ApplicationID: s.scope.ApplicationID}
	found, err := s.store.QuerySingleByExample(ctx, CollectionRoles, example, role)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role lookup failed")
	}
	if !found {
		return nil, ErrRoleNotFound
	}
	return role, nil
}

// All lists every role in the application.
func (s *RoleStore) All(ctx context.Context) ([]*Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "role listing cancelled")
	}

	var roles []*Role
	if err := s.store.QueryByExample(ctx, CollectionRoles, &Role{ApplicationID: s.scope.ApplicationID}, &roles); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role listing failed")
	}
	return roles, nil
}

// GetClaims returns the role's claims.
func (s *RoleStore) GetClaims(ctx context.Context, role *Role) ([]Claim, error) {
	var rows []*RoleClaim
	example := &RoleClaim{RoleID: role.ID, ApplicationID: s.scope.ApplicationID}
	if err := s.store.QueryByExample(ctx, CollectionRoleClaims, example, &rows); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "role claim lookup failed")
	}

	claims := make([]Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, Claim{Type: row.ClaimType, Value: row.Value, ValueType: row.ValueType})
	}
	return claims, nil
}

// AddClaim attaches a claim to the role.
func (s *RoleStore) AddClaim(ctx context.Context, role *Role, claim Claim) error {
	row := &RoleClaim{
		ApplicationID: s.scope.ApplicationID,
		RoleID:        role.ID,
		ClaimType:     claim.Type,
		Value:         claim.Value,
		ValueType:     claim.ValueType,
	}
	if _, err := s.store.Create(ctx, CollectionRoleClaims, row); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to add role claim")
	}
	return nil
}

// RemoveClaim detaches a claim from the role.
func (s *RoleStore) RemoveClaim(ctx context.Context, role *Role, claim Claim) error {
	example := &RoleClaim{
		ApplicationID: s.scope.ApplicationID,
		RoleID:        role.ID,
		ClaimType:     claim.Type,
		Value:         claim.Value,
	}
	if _, err := s.store.DeleteByExample(ctx, CollectionRoleClaims, example); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to remove role claim")
	}
	return nil
}
