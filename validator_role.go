package identity

import (
	"context"
	"fmt"
	"strings"
)

// RoleNameValidator checks role name format and uniqueness within the
// application scope.
type RoleNameValidator struct {
	opts RoleOptions
}

var _ RoleValidator = (*RoleNameValidator)(nil)

// NewRoleNameValidator builds the default role validator.
func NewRoleNameValidator(opts RoleOptions) *RoleNameValidator {
	return &RoleNameValidator{opts: opts}
}

func (v *RoleNameValidator) ValidateRole(ctx context.Context, m *RoleManager, role *Role) []FieldError {
	errs := &ValidationAggregate{}
	name := role.Name

	if strings.TrimSpace(name) == "" {
		errs.add("name", CodeInvalidRoleName, "role name must not be blank")
		return errs.Errors
	}

	if containsDeniedCharacters(name, v.opts.AllowedRoleNameCharacters) {
		errs.add("name", CodeInvalidRoleName, fmt.Sprintf("role name %q is invalid", name))
		return errs.Errors
	}

	existing, err := m.FindByName(ctx, name)
	if err != nil {
		if !IsNotFound(err) {
			errs.add("name", CodeInvalidRoleName, "role name lookup failed")
		}
		return errs.Errors
	}

	if existing.ID != role.ID {
		errs.add("name", CodeDuplicateRoleName, fmt.Sprintf("role name %q is already taken", name))
	}

	return errs.Errors
}
