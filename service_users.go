package identity

import "context"

// UserService wraps the user manager in the Operation envelope. No error ever
// escapes as a bare error; boundary layers translate the envelope.
type UserService struct {
	users *UserManager
	roles *RoleManager
}

// NewUserService builds a user service. The role manager may be nil when role
// assignment is not needed.
func NewUserService(users *UserManager, roles *RoleManager) *UserService {
	return &UserService{users: users, roles: roles}
}

// Create builds a user from the creation model and persists it.
func (s *UserService) Create(ctx context.Context, model CreateUserModel) Operation[*User] {
	user, err := s.users.Register(ctx, model)
	if err != nil {
		return Failed[*User](err)
	}
	return Created(user)
}

// Update persists the given user through the validation pipeline.
func (s *UserService) Update(ctx context.Context, user *User) Operation[*User] {
	if err := s.users.Update(ctx, user); err != nil {
		return failedOrMissing[*User](err)
	}
	return Ok(user)
}

// DeleteByID removes a user by id. A missing user maps to a 404 hint.
func (s *UserService) DeleteByID(ctx context.Context, id string) Operation[struct{}] {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.users.Delete(ctx, user); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Deleted[struct{}]()
}

// FindByID resolves a user by id.
func (s *UserService) FindByID(ctx context.Context, id string) Operation[*User] {
	return findOp(s.users.FindByID(ctx, id))
}

// FindByName resolves a user by name.
func (s *UserService) FindByName(ctx context.Context, name string) Operation[*User] {
	return findOp(s.users.FindByName(ctx, name))
}

// FindByEmail resolves a user by email.
func (s *UserService) FindByEmail(ctx context.Context, email string) Operation[*User] {
	return findOp(s.users.FindByEmail(ctx, email))
}

// FindByPhoneNumber resolves a user by phone number.
func (s *UserService) FindByPhoneNumber(ctx context.Context, phoneNumber string) Operation[*User] {
	return findOp(s.users.FindByPhoneNumber(ctx, phoneNumber))
}

// FindByIdentity resolves a user by the named identity type, with confirmed
// flag gating on email and phone lookups.
func (s *UserService) FindByIdentity(ctx context.Context, identityType IdentityType, identity string) Operation[*User] {
	return findOp(s.users.FindByIdentity(ctx, identityType, identity))
}

// List returns every user in the tenant.
func (s *UserService) List(ctx context.Context) Operation[[]*User] {
	return findOp(s.users.All(ctx))
}

// Count returns the number of users in the tenant.
func (s *UserService) Count(ctx context.Context) Operation[uint64] {
	count, err := s.users.Count(ctx)
	if err != nil {
		return Failed[uint64](err)
	}
	return Ok(count)
}

// ChangePassword sets a new password for the user, recording the old hash in
// the password history.
func (s *UserService) ChangePassword(ctx context.Context, id, password string) Operation[struct{}] {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.users.SetPassword(ctx, user, password); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}

// AssignRole links a user to a role by role name.
func (s *UserService) AssignRole(ctx context.Context, userID, roleName string) Operation[struct{}] {
	user, role, op := s.resolveUserAndRole(ctx, userID, roleName)
	if op != nil {
		return *op
	}
	if err := s.users.AddToRole(ctx, user, role.ID); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}

// UnassignRole unlinks a user from a role by role name.
func (s *UserService) UnassignRole(ctx context.Context, userID, roleName string) Operation[struct{}] {
	user, role, op := s.resolveUserAndRole(ctx, userID, roleName)
	if op != nil {
		return *op
	}
	if err := s.users.RemoveFromRole(ctx, user, role.ID); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}

// Roles lists the role names assigned to a user.
func (s *UserService) Roles(ctx context.Context, userID string) Operation[[]string] {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return failedOrMissing[[]string](err)
	}
	return findOp(s.users.GetRoles(ctx, user))
}

// Claims lists a user's direct claims.
func (s *UserService) Claims(ctx context.Context, userID string) Operation[[]Claim] {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return failedOrMissing[[]Claim](err)
	}
	return findOp(s.users.GetClaims(ctx, user))
}

// AddClaim attaches a claim to a user by id.
func (s *UserService) AddClaim(ctx context.Context, userID string, claim Claim) Operation[struct{}] {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.users.AddClaim(ctx, user, claim); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}

// RemoveClaim detaches a claim from a user by id.
func (s *UserService) RemoveClaim(ctx context.Context, userID string, claim Claim) Operation[struct{}] {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.users.RemoveClaim(ctx, user, claim); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Ok(struct{}{})
}

func (s *UserService) resolveUserAndRole(ctx context.Context, userID, roleName string) (*User, *Role, *Operation[struct{}]) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		op := failedOrMissing[struct{}](err)
		return nil, nil, &op
	}

	if s.roles == nil {
		op := Failed[struct{}](ErrRoleNotFound)
		return nil, nil, &op
	}
	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		op := failedOrMissing[struct{}](err)
		return nil, nil, &op
	}
	return user, role, nil
}

// findOp converts a lookup result into an Operation.
func findOp[T any](data T, err error) Operation[T] {
	if err != nil {
		return failedOrMissing[T](err)
	}
	return Ok(data)
}

// failedOrMissing maps not-found errors to a 404 envelope and everything else
// through Failed.
func failedOrMissing[T any](err error) Operation[T] {
	if IsNotFound(err) {
		return NotFound[T](err.Error())
	}
	return Failed[T](err)
}
