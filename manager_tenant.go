package identity

import (
	"context"

	"github.com/google/uuid"
)

// TenantManager drives the tenant lifecycle over a TenantStore.
type TenantManager struct {
	managerCore

	store *TenantStore
	opts  Options
	caps  StoreCapabilities

	// Validators run in order on every create and update.
	Validators []TenantValidator
}

// NewTenantManager builds a tenant manager with the default name validator.
func NewTenantManager(store *TenantStore, opts Options, options ...ManagerOption) *TenantManager {
	m := &TenantManager{
		store:      store,
		opts:       opts,
		caps:       store.Capabilities(),
		Validators: []TenantValidator{NewTenantNameValidator(opts.Tenant)},
	}
	m.init(opts.Stores, options...)
	return m
}

// Count returns the number of tenants.
func (m *TenantManager) Count(ctx context.Context) (uint64, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

// Create validates, stamps, normalizes, and persists a new tenant.
func (m *TenantManager) Create(ctx context.Context, tenant *Tenant) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, tenant); err != nil {
		return err
	}

	if m.caps.SecurityStamps {
		tenant.SecurityStamp = uuid.NewString()
	}
	tenant.ConcurrencyStamp = uuid.NewString()
	tenant.NormalizedName = maybeNormalizeName(m.normalizer, tenant.Name)

	return m.store.Create(ctx, tenant)
}

// Update validates, re-stamps the concurrency stamp, normalizes, and persists
// the tenant. The security stamp is untouched.
func (m *TenantManager) Update(ctx context.Context, tenant *Tenant) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, tenant); err != nil {
		return err
	}

	tenant.NormalizedName = maybeNormalizeName(m.normalizer, tenant.Name)
	return m.persist(ctx, tenant)
}

// UpdateSecurityStamp rotates the tenant's security stamp.
func (m *TenantManager) UpdateSecurityStamp(ctx context.Context, tenant *Tenant) error {
	if err := m.guard(); err != nil {
		return err
	}
	if !m.caps.SecurityStamps {
		return ErrNoSecurityStamps
	}

	tenant.SecurityStamp = uuid.NewString()
	return m.persist(ctx, tenant)
}

// Delete removes the tenant.
func (m *TenantManager) Delete(ctx context.Context, tenant *Tenant) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.Delete(ctx, tenant)
}

// FindByID resolves a tenant by id.
func (m *TenantManager) FindByID(ctx context.Context, id string) (*Tenant, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByID(ctx, id)
}

// FindByName resolves a tenant by name, normalizing first.
func (m *TenantManager) FindByName(ctx context.Context, name string) (*Tenant, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByName(ctx, maybeNormalizeName(m.normalizer, name))
}

// All lists every tenant. Requires a queryable store.
func (m *TenantManager) All(ctx context.Context) ([]*Tenant, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.caps.Queryable {
		return nil, ErrStoreNotQueryable
	}
	return m.store.All(ctx)
}

// UsersInTenant lists the users belonging to a tenant id.
func (m *TenantManager) UsersInTenant(ctx context.Context, tenantID string) ([]*User, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.UsersInTenant(ctx, tenantID)
}

func (m *TenantManager) validate(ctx context.Context, tenant *Tenant) error {
	agg := &ValidationAggregate{}
	for _, v := range m.Validators {
		agg.Errors = append(agg.Errors, v.ValidateTenant(ctx, m, tenant)...)
	}
	if agg.HasErrors() {
		return agg
	}
	return nil
}

func (m *TenantManager) persist(ctx context.Context, tenant *Tenant) error {
	priorStamp := tenant.ConcurrencyStamp
	tenant.ConcurrencyStamp = uuid.NewString()
	return m.store.Update(ctx, tenant, priorStamp)
}
