package identity

import "context"

// TenantService wraps the tenant manager in the Operation envelope.
type TenantService struct {
	tenants *TenantManager
}

// NewTenantService builds a tenant service.
func NewTenantService(tenants *TenantManager) *TenantService {
	return &TenantService{tenants: tenants}
}

// Create builds a tenant from the creation model and persists it.
func (s *TenantService) Create(ctx context.Context, model CreateTenantModel) Operation[*Tenant] {
	tenant := NewTenantFromModel(model)
	if err := s.tenants.Create(ctx, tenant); err != nil {
		return Failed[*Tenant](err)
	}
	return Created(tenant)
}

// Update persists the given tenant through the validation pipeline.
func (s *TenantService) Update(ctx context.Context, tenant *Tenant) Operation[*Tenant] {
	if err := s.tenants.Update(ctx, tenant); err != nil {
		return failedOrMissing[*Tenant](err)
	}
	return Ok(tenant)
}

// DeleteByID removes a tenant by id. A missing tenant maps to a 404 hint.
func (s *TenantService) DeleteByID(ctx context.Context, id string) Operation[struct{}] {
	tenant, err := s.tenants.FindByID(ctx, id)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.tenants.Delete(ctx, tenant); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Deleted[struct{}]()
}

// FindByID resolves a tenant by id.
func (s *TenantService) FindByID(ctx context.Context, id string) Operation[*Tenant] {
	return findOp(s.tenants.FindByID(ctx, id))
}

// FindByName resolves a tenant by name.
func (s *TenantService) FindByName(ctx context.Context, name string) Operation[*Tenant] {
	return findOp(s.tenants.FindByName(ctx, name))
}

// List returns every tenant.
func (s *TenantService) List(ctx context.Context) Operation[[]*Tenant] {
	return findOp(s.tenants.All(ctx))
}

// Count returns the number of tenants.
func (s *TenantService) Count(ctx context.Context) Operation[uint64] {
	count, err := s.tenants.Count(ctx)
	if err != nil {
		return Failed[uint64](err)
	}
	return Ok(count)
}

// Users lists the users belonging to a tenant id.
func (s *TenantService) Users(ctx context.Context, tenantID string) Operation[[]*User] {
	if _, err := s.tenants.FindByID(ctx, tenantID); err != nil {
		return failedOrMissing[[]*User](err)
	}
	return findOp(s.tenants.UsersInTenant(ctx, tenantID))
}
