package identity

import (
	"context"
	"fmt"
	"strings"
)

// Field error codes emitted by the built-in validators.
const (
	CodeInvalidUserName          = "InvalidUserName"
	CodeDuplicateUserName        = "DuplicateUserName"
	CodeInvalidEmail             = "InvalidEmail"
	CodeDuplicateEmail           = "DuplicateEmail"
	CodeMissingEmail             = "MissingEmail"
	CodeInvalidPhoneNumber       = "InvalidPhoneNumber"
	CodeDuplicatePhoneNumber     = "DuplicatePhoneNumber"
	CodeMissingPhoneNumber       = "MissingPhoneNumber"
	CodeMissingIdentifier        = "MissingIdentifier"
	CodeInvalidTenantName        = "InvalidTenantName"
	CodeDuplicateTenantName      = "DuplicateTenantName"
	CodeInvalidApplicationName   = "InvalidApplicationName"
	CodeDuplicateApplicationName = "DuplicateApplicationName"
	CodeInvalidRoleName          = "InvalidRoleName"
	CodeDuplicateRoleName        = "DuplicateRoleName"
)

// FieldError is a single validation violation.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationAggregate collects every violation found during a validation
// pass. Managers run all registered validators before returning, so a single
// failed save reports every problem at once.
type ValidationAggregate struct {
	Errors []FieldError
}

func (v *ValidationAggregate) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	parts := make([]string, 0, len(v.Errors))
	for _, fe := range v.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Code, fe.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether any violation was recorded.
func (v *ValidationAggregate) HasErrors() bool { return len(v.Errors) > 0 }

func (v *ValidationAggregate) add(field, code, message string) {
	v.Errors = append(v.Errors, FieldError{Field: field, Code: code, Message: message})
}

// UserValidator is a pluggable rule appended to the user manager pipeline.
// Validators never mutate the entity; they only report violations.
type UserValidator interface {
	ValidateUser(ctx context.Context, m *UserManager, user *User) []FieldError
}

// TenantValidator validates tenants inside the tenant manager pipeline.
type TenantValidator interface {
	ValidateTenant(ctx context.Context, m *TenantManager, tenant *Tenant) []FieldError
}

// ApplicationValidator validates applications.
type ApplicationValidator interface {
	ValidateApplication(ctx context.Context, m *ApplicationManager, app *Application) []FieldError
}

// RoleValidator validates roles.
type RoleValidator interface {
	ValidateRole(ctx context.Context, m *RoleManager, role *Role) []FieldError
}

// containsDeniedCharacters reports whether value uses characters outside the
// allowed set. An empty allowed set disables the check.
func containsDeniedCharacters(value, allowed string) bool {
	if allowed == "" {
		return false
	}
	for _, r := range value {
		if !strings.ContainsRune(allowed, r) {
			return true
		}
	}
	return false
}
