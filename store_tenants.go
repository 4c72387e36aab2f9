package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// StoreCapabilities describes the optional features a store exposes. Resolved
// once at construction; managers never probe at call time.
type StoreCapabilities struct {
	SecurityStamps bool
	Queryable      bool
}

// TenantStore maps tenant operations onto DataStore calls. Tenants are the
// top-level partition, so no additional scoping applies.
type TenantStore struct {
	store DataStore
	opts  StoreOptions
	caps  StoreCapabilities
}

// NewTenantStore builds a tenant store over the given port.
func NewTenantStore(store DataStore, opts StoreOptions) *TenantStore {
	return &TenantStore{
		store: store,
		opts:  opts,
		caps:  StoreCapabilities{SecurityStamps: true, Queryable: true},
	}
}

// Capabilities reports the optional features this store supports.
func (s *TenantStore) Capabilities() StoreCapabilities { return s.caps }

// Count returns the number of tenants.
func (s *TenantStore) Count(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx, CollectionTenants)
}

// Create persists a new tenant, assigning an id when absent.
func (s *TenantStore) Create(ctx context.Context, tenant *Tenant) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "tenant create cancelled")
	}

	if tenant.ConcurrencyStamp == "" {
		tenant.ConcurrencyStamp = uuid.NewString()
	}

	if tenant.ID == "" {
		id, err := GenerateKey(s.opts.KeyKind)
		if err != nil {
			return err
		}
		tenant.ID = id
	}

	outcome, err := s.store.Create(ctx, CollectionTenants, tenant)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist tenant")
	}
	if outcome == CreateOutcomeAlreadyExists {
		return goerrors.New("tenant already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}
	return nil
}

// Update overwrites the tenant matched by (id, priorStamp).
func (s *TenantStore) Update(ctx context.Context, tenant *Tenant, priorStamp string) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "tenant update cancelled")
	}

	if tenant.ConcurrencyStamp == "" {
		tenant.ConcurrencyStamp = uuid.NewString()
	}

	example := &Tenant{ID: tenant.ID, ConcurrencyStamp: priorStamp}
	affected, err := s.store.UpdateByExample(ctx, CollectionTenants, tenant, example)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update tenant")
	}
	return checkSingleRow(affected, ErrConcurrencyConflict)
}

// Delete removes the tenant. Dependent users must be removed first.
func (s *TenantStore) Delete(ctx context.Context, tenant *Tenant) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "tenant delete cancelled")
	}

	deleted, err := s.store.DeleteByExample(ctx, CollectionTenants, &Tenant{ID: tenant.ID})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete tenant")
	}
	return checkSingleRow(deleted, ErrTenantNotFound)
}

// FindByID resolves a tenant by id.
func (s *TenantStore) FindByID(ctx context.Context, id string) (*Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "tenant lookup cancelled")
	}

	tenant := &Tenant{}
	found, err := s.store.QuerySingleByExample(ctx, CollectionTenants, &Tenant{ID: id}, tenant)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "tenant lookup failed")
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

// FindByName resolves a tenant by normalized name.
func (s *TenantStore) FindByName(ctx context.Context, normalizedName string) (*Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "tenant lookup cancelled")
	}

	tenant := &Tenant{}
	found, err := s.store.QuerySingleByExample(ctx, CollectionTenants, &Tenant{NormalizedName: normalizedName}, tenant)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "tenant lookup failed")
	}
	if !found {
		return nil, ErrTenantNotFound
	}
	return tenant, nil
}

// All lists every tenant.
func (s *TenantStore) All(ctx context.Context) ([]*Tenant, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "tenant listing cancelled")
	}

	var tenants []*Tenant
	if err := s.store.QueryByExample(ctx, CollectionTenants, nil, &tenants); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "tenant listing failed")
	}
	return tenants, nil
}

// UsersInTenant lists the users belonging to a tenant id.
func (s *TenantStore) UsersInTenant(ctx context.Context, tenantID string) ([]*User, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "tenant user listing cancelled")
	}

	var users []*User
	if err := s.store.QueryByExample(ctx, CollectionUsers, &User{TenantID: tenantID}, &users); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "tenant user listing failed")
	}
	return users, nil
}
