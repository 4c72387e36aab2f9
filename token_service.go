package identity

import (
	"context"
	"net/http"
)

// TokenRequest is a credential presentation asking for a bearer token.
type TokenRequest struct {
	IdentityType IdentityType `json:"identity_type"`
	Identity     string       `json:"identity"`
	Password     string       `json:"password"`
}

// TokenResult carries the issued token plus the projected claim payload.
type TokenResult struct {
	Token  string         `json:"token"`
	Claims map[string]any `json:"claims"`
}

// TokenService is the token issuance surface: sign-in plus fabrication in one
// call, envelope in, envelope out.
type TokenService struct {
	signIn     *SignInService
	fabricator *TokenFabricator
	logger     Logger
}

// NewTokenService builds a token service over a sign-in service and a
// fabricator.
func NewTokenService(signIn *SignInService, fabricator *TokenFabricator, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{signIn: signIn, fabricator: fabricator, logger: logger}
}

// IssueToken resolves the credentials through the sign-in pipeline and mints
// a bearer token carrying the user's full claim set. Refusals and missing
// users pass through with their 401/404 hints intact.
func (s *TokenService) IssueToken(ctx context.Context, req TokenRequest) Operation[TokenResult] {
	op := s.signIn.SignIn(ctx, SignInRequest{
		IdentityType: req.IdentityType,
		Identity:     req.Identity,
		Password:     req.Password,
	})
	if !op.Succeeded {
		return Operation[TokenResult]{
			Refused:    op.Refused,
			Errors:     op.Errors,
			StatusHint: op.StatusHint,
		}
	}

	token, err := s.fabricator.CreateToken(op.Data.User, op.Data.Claims)
	if err != nil {
		s.logger.Error("token fabrication failed for user %s: %v", op.Data.User.ID, err)
		return Operation[TokenResult]{
			StatusHint: http.StatusInternalServerError,
			Errors: []OperationError{{
				Code:       CodeInternalError,
				Message:    "an internal error occurred",
				StatusHint: http.StatusInternalServerError,
			}},
		}
	}

	return Ok(TokenResult{
		Token:  token,
		Claims: ProjectClaims(op.Data.Claims),
	})
}

// VerifyToken validates a previously issued token and returns its claim
// payload.
func (s *TokenService) VerifyToken(tokenString string) Operation[map[string]any] {
	claims, err := s.fabricator.VerifyToken(tokenString)
	if err != nil {
		return Failed[map[string]any](err)
	}
	return Ok(claims)
}
