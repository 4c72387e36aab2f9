package identity

import (
	"context"
	"fmt"
	"strings"
)

// ApplicationNameValidator checks application name format and uniqueness.
type ApplicationNameValidator struct {
	opts ApplicationOptions
}

var _ ApplicationValidator = (*ApplicationNameValidator)(nil)

// NewApplicationNameValidator builds the default application validator.
func NewApplicationNameValidator(opts ApplicationOptions) *ApplicationNameValidator {
	return &ApplicationNameValidator{opts: opts}
}

func (v *ApplicationNameValidator) ValidateApplication(ctx context.Context, m *ApplicationManager, app *Application) []FieldError {
	errs := &ValidationAggregate{}
	name := app.Name

	if strings.TrimSpace(name) == "" {
		errs.add("name", CodeInvalidApplicationName, "application name must not be blank")
		return errs.Errors
	}

	if containsDeniedCharacters(name, v.opts.AllowedApplicationNameCharacters) {
		errs.add("name", CodeInvalidApplicationName, fmt.Sprintf("application name %q is invalid", name))
		return errs.Errors
	}

	existing, err := m.FindByName(ctx, name)
	if err != nil {
		if !IsNotFound(err) {
			errs.add("name", CodeInvalidApplicationName, "application name lookup failed")
		}
		return errs.Errors
	}

	if existing.ID != app.ID {
		errs.add("name", CodeDuplicateApplicationName, fmt.Sprintf("application name %q is already taken", name))
	}

	return errs.Errors
}
