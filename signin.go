package identity

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// CodeSignInRefused marks refusal entries in sign-in Operations.
const CodeSignInRefused = "SignInRefused"

// Refusal messages. More than one can apply to a single attempt; callers get
// one entry per condition.
const (
	RefusalLockedOut  = "001 - User is locked out."
	RefusalNotAllowed = "002 - User is not allowed to sign in."
	RefusalNeeds2FA   = "003 - User requires multi-factor authentication."
)

// SignInRequest is a credential presentation against one identity type.
type SignInRequest struct {
	IdentityType IdentityType `json:"identity_type"`
	Identity     string       `json:"identity"`
	Password     string       `json:"password"`
}

// SignInResult carries the resolved user and its full claim set.
type SignInResult struct {
	User   *User   `json:"user"`
	Claims []Claim `json:"claims"`
}

// SignInService runs the sign-in pipeline: resolve the user by identity type,
// verify the password with lockout accounting, enrich the claim set, and emit
// an Operation. Unexpected failures surface as a generic internal error; the
// detail goes to the log only.
type SignInService struct {
	users  *UserManager
	roles  *RoleManager
	scope  Scope
	names  ClaimOptions
	logger Logger

	handlers []SignInHandler

	// requireConfirmed refuses users with neither a confirmed email nor a
	// confirmed phone number.
	requireConfirmed bool
}

// SignInOption mutates a SignInService during construction.
type SignInOption func(*SignInService)

// WithSignInLogger replaces the default stdout logger.
func WithSignInLogger(logger Logger) SignInOption {
	return func(s *SignInService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSignInHandlers appends post-success hooks. Handlers run sequentially
// with the full claim set; a handler error aborts the sign-in.
func WithSignInHandlers(handlers ...SignInHandler) SignInOption {
	return func(s *SignInService) {
		s.handlers = append(s.handlers, handlers...)
	}
}

// WithClaimNames overrides the claim type names projected into results.
func WithClaimNames(names ClaimOptions) SignInOption {
	return func(s *SignInService) { s.names = names }
}

// WithRequireConfirmedAccount refuses accounts without a confirmed email or
// phone number.
func WithRequireConfirmedAccount(require bool) SignInOption {
	return func(s *SignInService) { s.requireConfirmed = require }
}

// NewSignInService builds a sign-in service. The role manager may be nil, in
// which case role claims are not merged into results.
func NewSignInService(users *UserManager, roles *RoleManager, scope Scope, options ...SignInOption) *SignInService {
	s := &SignInService{
		users:  users,
		roles:  roles,
		scope:  scope,
		names:  DefaultClaimOptions(),
		logger: defLogger{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// SignIn runs the full pipeline for one credential presentation.
func (s *SignInService) SignIn(ctx context.Context, req SignInRequest) Operation[SignInResult] {
	user, err := s.users.FindByIdentity(ctx, req.IdentityType, req.Identity)
	if err != nil {
		if IsNotFound(err) {
			return NotFound[SignInResult]("user not found")
		}
		return s.internal("sign-in resolve failed", err)
	}

	if refusals := s.refusals(user); len(refusals) > 0 {
		return Refused(SignInResult{}, refusals...)
	}

	if err := s.users.CheckPassword(user, req.Password); err != nil {
		if !goerrors.Is(err, ErrMismatchedHashAndPassword) {
			return s.internal("password verification failed", err)
		}

		locked, aerr := s.users.AccessFailed(ctx, user)
		if aerr != nil {
			s.logger.Error("sign-in failed to record access failure for user %s: %v", user.ID, aerr)
		}
		if locked {
			return Refused(SignInResult{}, OperationError{Code: CodeSignInRefused, Message: RefusalLockedOut})
		}
		return Failed[SignInResult](err)
	}

	if err := s.users.ResetAccessFailed(ctx, user); err != nil {
		s.logger.Error("sign-in failed to reset access failures for user %s: %v", user.ID, err)
	}

	claims, err := s.enrich(ctx, user)
	if err != nil {
		return s.internal("sign-in claim enrichment failed", err)
	}

	for _, handler := range s.handlers {
		if err := handler.OnSignInSuccess(ctx, claims); err != nil {
			return s.internal("sign-in handler failed", err)
		}
	}

	return Ok(SignInResult{User: user, Claims: claims})
}

// refusals evaluates every refusal condition so the caller sees all of them
// at once.
func (s *SignInService) refusals(user *User) []OperationError {
	var out []OperationError

	if s.users.IsLockedOut(user) {
		out = append(out, OperationError{Code: CodeSignInRefused, Message: RefusalLockedOut})
	}
	if s.requireConfirmed && !user.EmailConfirmed && !user.PhoneNumberConfirmed {
		out = append(out, OperationError{Code: CodeSignInRefused, Message: RefusalNotAllowed})
	}
	if user.TwoFactorEnabled {
		out = append(out, OperationError{Code: CodeSignInRefused, Message: RefusalNeeds2FA})
	}
	return out
}

// enrich assembles the full claim set: base identity claims, the user's own
// claims, one role claim per role name, and the claims of each role.
func (s *SignInService) enrich(ctx context.Context, user *User) ([]Claim, error) {
	claims := BaseUserClaims(user, s.scope, s.names)

	userClaims, err := s.users.GetClaims(ctx, user)
	if err != nil {
		return nil, err
	}
	claims = append(claims, userClaims...)

	roleNames, err := s.users.GetRoles(ctx, user)
	if err != nil {
		return nil, err
	}

	for _, name := range roleNames {
		claims = append(claims, NewClaim(s.names.RoleClaim, name))

		if s.roles == nil {
			continue
		}
		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		roleClaims, err := s.roles.GetClaims(ctx, role)
		if err != nil {
			return nil, err
		}
		claims = append(claims, roleClaims...)
	}

	return claims, nil
}

// internal logs the underlying error and returns a generic envelope; callers
// never see the detail.
func (s *SignInService) internal(msg string, err error) Operation[SignInResult] {
	s.logger.Error("%s: %v", msg, err)
	return Operation[SignInResult]{
		StatusHint: http.StatusInternalServerError,
		Errors: []OperationError{{
			Code:       CodeInternalError,
			Message:    "an internal error occurred",
			StatusHint: http.StatusInternalServerError,
		}},
	}
}
