package identity

import "context"

// RoleService wraps the role manager in the Operation envelope.
type RoleService struct {
	roles *RoleManager
}

// NewRoleService builds a role service.
func NewRoleService(roles *RoleManager) *RoleService {
	return &RoleService{roles: roles}
}

// Create builds a role from the creation model and persists it.
func (s *RoleService) Create(ctx context.Context, model CreateRoleModel) Operation[*Role] {
	role := NewRoleFromModel(model)
	if err := s.roles.Create(ctx, role); err != nil {
		return Failed[*Role](err)
	}
	return Created(role)
}

// Update persists the given role through the validation pipeline.
func (s *RoleService) Update(ctx context.Context, role *Role) Operation[*Role] {
	if err := s.roles.Update(ctx, role); err != nil {
		return failedOrMissing[*Role](err)
	}
	return Ok(role)
}

// DeleteByID removes a role by id. A missing role maps to a 404 hint.
func (s *RoleService) DeleteByID(ctx context.Context, id string) Operation[struct{}] {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.roles.Delete(ctx, role); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Deleted[struct{}]()
}

// FindByID resolves a role by id.
func (s *RoleService) FindByID(ctx context.Context, id string) Operation[*Role] {
	return findOp(s.roles.FindByID(ctx, id))
}

// FindByName resolves a role by name.
func (s *RoleService) FindByName(ctx context.Context, name string) Operation[*Role] {
	return findOp(s.roles.FindByName(ctx, name))
}

// List returns every role in the application.
func (s *RoleService) List(ctx context.Context) Operation[[]*Role] {
	return findOp(s.roles.All(ctx))
}

// Count returns the number of roles in the application.
func (s *RoleService) Count(ctx context.Context) Operation[uint64] {
	count, err := s.roles.Count(ctx)
	if err != nil {
		return Failed[uint64](err)
	}
	return Ok(count)
}

// Claims lists a role's claims.
func (s *RoleService) Claims(ctx context.Context, roleID string) Operation[[]Claim] {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return failedOrMissing[[]Claim](err)
	}
	return findOp(s.roles.GetClaims(ctx, role))
}

// AddClaim attaches a claim to a role by id.
func (s *RoleService) AddClaim(ctx context.Context, roleID string, claim Claim) Operation[struct{}] {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.roles.AddClaim(ctx, role, claim); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}

// RemoveClaim detaches a claim from a role by id.
func (s *RoleService) RemoveClaim(ctx context.Context, roleID string, claim Claim) Operation[struct{}] {
	role, err := s.roles.FindByID(ctx, roleID)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.roles.RemoveClaim(ctx, role, claim); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}
