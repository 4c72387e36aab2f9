package identity

import (
	"context"

	"github.com/google/uuid"
)

// RoleManager drives the role lifecycle over a RoleStore. Roles carry no
// security stamp, so only the concurrency stamp rotates.
type RoleManager struct {
	managerCore

	store *RoleStore
	opts  Options
	caps  StoreCapabilities

	// Validators run in order on every create and update.
	Validators []RoleValidator
}

// NewRoleManager builds a role manager with the default name validator.
func NewRoleManager(store *RoleStore, opts Options, options ...ManagerOption) *RoleManager {
	m := &RoleManager{
		store:      store,
		opts:       opts,
		caps:       store.Capabilities(),
		Validators: []RoleValidator{NewRoleNameValidator(opts.Role)},
	}
	m.init(opts.Stores, options...)
	return m
}

// Count returns the number of roles in the application.
func (m *RoleManager) Count(ctx context.Context) (uint64, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

// Create validates, stamps, normalizes, and persists a new role.
func (m *RoleManager) Create(ctx context.Context, role *Role) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, role); err != nil {
		return err
	}

	role.ConcurrencyStamp = uuid.NewString()
	role.NormalizedName = maybeNormalizeName(m.normalizer, role.Name)

	return m.store.Create(ctx, role)
}

// Update validates, re-stamps the concurrency stamp, normalizes, and persists
// the role.
func (m *RoleManager) Update(ctx context.Context, role *Role) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, role); err != nil {
		return err
	}

	role.NormalizedName = maybeNormalizeName(m.normalizer, role.Name)
	return m.persist(ctx, role)
}

// Delete removes the role, its claims, and user links.
func (m *RoleManager) Delete(ctx context.Context, role *Role) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.Delete(ctx, role)
}

// FindByID resolves a role by id.
func (m *RoleManager) FindByID(ctx context.Context, id string) (*Role, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByID(ctx, id)
}

// FindByName resolves a role by name, normalizing first.
func (m *RoleManager) FindByName(ctx context.Context, name string) (*Role, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByName(ctx, maybeNormalizeName(m.normalizer, name))
}

// All lists every role in the application. Requires a queryable store.
func (m *RoleManager) All(ctx context.Context) ([]*Role, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.caps.Queryable {
		return nil, ErrStoreNotQueryable
	}
	return m.store.All(ctx)
}

// GetClaims returns the role's claims.
func (m *RoleManager) GetClaims(ctx context.Context, role *Role) ([]Claim, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.GetClaims(ctx, role)
}

// AddClaim attaches a claim to the role.
func (m *RoleManager) AddClaim(ctx context.Context, role *Role, claim Claim) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.AddClaim(ctx, role, claim)
}

// RemoveClaim detaches a claim from the role.
func (m *RoleManager) RemoveClaim(ctx context.Context, role *Role, claim Claim) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.RemoveClaim(ctx, role, claim)
}

func (m *RoleManager) validate(ctx context.Context, role *Role) error {
	agg := &ValidationAggregate{}
	for _, v := range m.Validators {
		agg.Errors = append(agg.Errors, v.ValidateRole(ctx, m, role)...)
	}
	if agg.HasErrors() {
		return agg
	}
	return nil
}

func (m *RoleManager) persist(ctx context.Context, role *Role) error {
	priorStamp := role.ConcurrencyStamp
	role.ConcurrencyStamp = uuid.NewString()
	return m.store.Update(ctx, role, priorStamp)
}
