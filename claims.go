package identity

import "strings"

// Claim value types, mirroring the common XML-schema identifiers used by
// token consumers.
const (
	ClaimValueTypeString  = "http://www.w3.org/2001/XMLSchema#string"
	ClaimValueTypeInteger = "http://www.w3.org/2001/XMLSchema#integer64"
)

// Well-known claim type names.
const (
	ClaimUserID          = "userId"
	ClaimUserName        = "userName"
	ClaimEmail           = "userEmail"
	ClaimRole            = "userRole"
	ClaimPermission      = "userPermission"
	ClaimTenantID        = "tenantId"
	ClaimTenantName      = "tenantName"
	ClaimApplicationID   = "appId"
	ClaimApplicationName = "appName"
)

// Claim is a (type, value) pair attached to a user or role and projected into
// issued tokens.
type Claim struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	ValueType string `json:"value_type,omitempty"`
}

// NewClaim builds a string-typed claim.
func NewClaim(claimType, value string) Claim {
	return Claim{Type: claimType, Value: value, ValueType: ClaimValueTypeString}
}

// TryAddClaim appends a claim unless the type is blank, the value is blank,
// or a claim with the same type (case-insensitive) already exists.
func TryAddClaim(claims []Claim, claimType, value string) []Claim {
	if strings.TrimSpace(claimType) == "" || strings.TrimSpace(value) == "" {
		return claims
	}
	for _, c := range claims {
		if strings.EqualFold(c.Type, claimType) {
			return claims
		}
	}
	return append(claims, NewClaim(claimType, value))
}

// mustAddClaim appends a claim even when the value is empty. The identity
// claim set always carries id, name, and email entries so token consumers can
// rely on their presence.
func mustAddClaim(claims []Claim, claimType, value string) []Claim {
	for _, c := range claims {
		if strings.EqualFold(c.Type, claimType) {
			return claims
		}
	}
	return append(claims, NewClaim(claimType, value))
}

// BaseUserClaims produces the minimum claim set for a user: id, name, and
// email (empty values allowed), plus tenant and application claims when the
// scope resolves them.
func BaseUserClaims(user *User, scope Scope, names ClaimOptions) []Claim {
	claims := make([]Claim, 0, 8)
	claims = mustAddClaim(claims, names.UserIDClaim, user.ID)
	claims = mustAddClaim(claims, names.UserNameClaim, user.UserName)
	claims = mustAddClaim(claims, names.EmailClaim, user.Email)

	claims = TryAddClaim(claims, names.TenantIDClaim, scope.TenantID)
	claims = TryAddClaim(claims, names.TenantNameClaim, scope.TenantName)
	claims = TryAddClaim(claims, names.ApplicationIDClaim, scope.ApplicationID)
	claims = TryAddClaim(claims, names.ApplicationNameClaim, scope.ApplicationName)

	return claims
}

// ProjectClaims flattens a claim list into a map: single-valued types collapse
// to scalars, multi-valued types become string slices. Used by whoami/verify
// surfaces.
func ProjectClaims(claims []Claim) map[string]any {
	grouped := make(map[string][]string)
	order := make([]string, 0, len(claims))
	for _, c := range claims {
		if _, seen := grouped[c.Type]; !seen {
			order = append(order, c.Type)
		}
		grouped[c.Type] = append(grouped[c.Type], c.Value)
	}

	result := make(map[string]any, len(order))
	for _, claimType := range order {
		values := grouped[claimType]
		if len(values) == 1 {
			result[claimType] = values[0]
			continue
		}
		result[claimType] = values
	}
	return result
}
