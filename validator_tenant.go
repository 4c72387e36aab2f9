package identity

import (
	"context"
	"fmt"
	"strings"
)

// TenantNameValidator checks tenant name format and uniqueness.
type TenantNameValidator struct {
	opts TenantOptions
}

var _ TenantValidator = (*TenantNameValidator)(nil)

// NewTenantNameValidator builds the default tenant validator.
func NewTenantNameValidator(opts TenantOptions) *TenantNameValidator {
	return &TenantNameValidator{opts: opts}
}

func (v *TenantNameValidator) ValidateTenant(ctx context.Context, m *TenantManager, tenant *Tenant) []FieldError {
	errs := &ValidationAggregate{}
	name := tenant.Name

	if strings.TrimSpace(name) == "" {
		errs.add("name", CodeInvalidTenantName, "tenant name must not be blank")
		return errs.Errors
	}

	if containsDeniedCharacters(name, v.opts.AllowedTenantNameCharacters) {
		errs.add("name", CodeInvalidTenantName, fmt.Sprintf("tenant name %q is invalid", name))
		return errs.Errors
	}

	existing, err := m.FindByName(ctx, name)
	if err != nil {
		if !IsNotFound(err) {
			errs.add("name", CodeInvalidTenantName, "tenant name lookup failed")
		}
		return errs.Errors
	}

	if existing.ID != tenant.ID {
		errs.add("name", CodeDuplicateTenantName, fmt.Sprintf("tenant name %q is already taken", name))
	}

	return errs.Errors
}
