package identity

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
)

// UsernameValidator carries the same username rules as the default identity
// stack, with the exception of optionally allowing registration without a
// username. Attempts to change the username later still validate in full.
type UsernameValidator struct {
	opts UserOptions
}

var _ UserValidator = (*UsernameValidator)(nil)

// NewUsernameValidator builds the default username validator.
func NewUsernameValidator(opts UserOptions) *UsernameValidator {
	return &UsernameValidator{opts: opts}
}

func (v *UsernameValidator) ValidateUser(ctx context.Context, m *UserManager, user *User) []FieldError {
	errs := &ValidationAggregate{}
	username := user.UserName

	if !v.opts.RequireUsername && strings.TrimSpace(username) == "" {
		return nil
	}

	if strings.TrimSpace(username) == "" || containsDeniedCharacters(username, v.opts.AllowedUserNameCharacters) {
		errs.add("username", CodeInvalidUserName, fmt.Sprintf("username %q is invalid", username))
		return errs.Errors
	}

	if v.opts.RequireUniqueUsername {
		existing, err := m.FindByName(ctx, username)
		if err != nil {
			if !IsNotFound(err) {
				errs.add("username", CodeInvalidUserName, "username lookup failed")
			}
			return errs.Errors
		}

		// An entity re-saved under its own unchanged name is not a duplicate.
		if existing.ID != user.ID {
			errs.add("username", CodeDuplicateUserName, fmt.Sprintf("username %q is already taken", username))
		}
		return errs.Errors
	}

	// Shared usernames are allowed, but two accounts may not share both the
	// username and the email; sign-in could not tell them apart.
	matches, err := m.FindAllByName(ctx, username)
	if err != nil {
		errs.add("username", CodeInvalidUserName, "username lookup failed")
		return errs.Errors
	}

	email := strings.TrimSpace(user.Email)
	for _, other := range matches {
		if other.ID != user.ID && email != "" && strings.EqualFold(other.Email, email) {
			errs.add("username", CodeDuplicateUserName, fmt.Sprintf("username %q is already taken", username))
			break
		}
	}
	return errs.Errors
}

// EmailValidator checks email format, required-ness, and uniqueness.
type EmailValidator struct {
	opts UserOptions
}

var _ UserValidator = (*EmailValidator)(nil)

// NewEmailValidator builds the default email validator.
func NewEmailValidator(opts UserOptions) *EmailValidator {
	return &EmailValidator{opts: opts}
}

func (v *EmailValidator) ValidateUser(ctx context.Context, m *UserManager, user *User) []FieldError {
	errs := &ValidationAggregate{}
	email := strings.TrimSpace(user.Email)

	if email == "" {
		if v.opts.RequireEmail {
			errs.add("email", CodeMissingEmail, "an email address is required")
		}
		return errs.Errors
	}

	if err := validation.Validate(email, is.Email); err != nil {
		errs.add("email", CodeInvalidEmail, fmt.Sprintf("email %q is invalid", email))
		return errs.Errors
	}

	if !v.opts.RequireUniqueEmail {
		return errs.Errors
	}

	existing, err := m.FindByEmail(ctx, email)
	if err != nil {
		if !IsNotFound(err) {
			errs.add("email", CodeInvalidEmail, "email lookup failed")
		}
		return errs.Errors
	}

	if existing.ID != user.ID {
		errs.add("email", CodeDuplicateEmail, fmt.Sprintf("email %q is already taken", email))
	}

	return errs.Errors
}

// PhoneNumberValidator checks phone validity, required-ness, and uniqueness.
type PhoneNumberValidator struct {
	opts UserOptions
	// DefaultRegion is used when parsing numbers without an international
	// prefix. Empty requires E.164 input.
	DefaultRegion string
}

var _ UserValidator = (*PhoneNumberValidator)(nil)

// NewPhoneNumberValidator builds the default phone validator.
func NewPhoneNumberValidator(opts UserOptions) *PhoneNumberValidator {
	return &PhoneNumberValidator{opts: opts}
}

func (v *PhoneNumberValidator) ValidateUser(ctx context.Context, m *UserManager, user *User) []FieldError {
	errs := &ValidationAggregate{}
	phone := strings.TrimSpace(user.PhoneNumber)

	if phone == "" {
		if v.opts.RequirePhoneNumber {
			errs.add("phone_number", CodeMissingPhoneNumber, "a phone number is required")
		}
		return errs.Errors
	}

	parsed, err := phonenumbers.Parse(phone, v.DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		errs.add("phone_number", CodeInvalidPhoneNumber, fmt.Sprintf("phone number %q is invalid", phone))
		return errs.Errors
	}

	if !v.opts.RequireUniquePhoneNumber {
		return errs.Errors
	}

	existing, err := m.FindByPhoneNumber(ctx, phone)
	if err != nil {
		if !IsNotFound(err) {
			errs.add("phone_number", CodeInvalidPhoneNumber, "phone number lookup failed")
		}
		return errs.Errors
	}

	if existing.ID != user.ID {
		errs.add("phone_number", CodeDuplicatePhoneNumber, fmt.Sprintf("phone number %q is already taken", phone))
	}

	return errs.Errors
}

// IdentifierValidator demands at least one of username, email, or phone so
// every account remains reachable by some identity type.
type IdentifierValidator struct {
	opts UserOptions
}

var _ UserValidator = (*IdentifierValidator)(nil)

// NewIdentifierValidator builds the at-least-one-identifier validator.
func NewIdentifierValidator(opts UserOptions) *IdentifierValidator {
	return &IdentifierValidator{opts: opts}
}

func (v *IdentifierValidator) ValidateUser(_ context.Context, _ *UserManager, user *User) []FieldError {
	if !v.opts.RequireIdentifier {
		return nil
	}

	if strings.TrimSpace(user.UserName) != "" ||
		strings.TrimSpace(user.Email) != "" ||
		strings.TrimSpace(user.PhoneNumber) != "" {
		return nil
	}

	return []FieldError{{
		Field:   "username",
		Code:    CodeMissingIdentifier,
		Message: "at least one of username, email, or phone number is required",
	}}
}

// DefaultUserValidators returns the standard user validation pipeline.
func DefaultUserValidators(opts UserOptions) []UserValidator {
	return []UserValidator{
		NewIdentifierValidator(opts),
		NewUsernameValidator(opts),
		NewEmailValidator(opts),
		NewPhoneNumberValidator(opts),
	}
}
