package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the identity user model. Users are scoped to a tenant; every store
// read, write, and delete carries TenantID.
type User struct {
	bun.BaseModel `bun:"table:identity_users,alias:usr"`

	ID                   string     `bun:"id,pk" json:"id,omitempty"`
	TenantID             string     `bun:"tenant_id" json:"tenant_id,omitempty"`
	UserName             string     `bun:"username" json:"username,omitempty"`
	NormalizedUserName   string     `bun:"normalized_username" json:"normalized_username,omitempty"`
	Email                string     `bun:"email" json:"email,omitempty"`
	NormalizedEmail      string     `bun:"normalized_email" json:"normalized_email,omitempty"`
	EmailConfirmed       bool       `bun:"email_confirmed" json:"email_confirmed,omitempty"`
	PhoneNumber          string     `bun:"phone_number" json:"phone_number,omitempty"`
	PhoneNumberConfirmed bool       `bun:"phone_number_confirmed" json:"phone_number_confirmed,omitempty"`
	PasswordHash         string     `bun:"password_hash" json:"-"`
	SecurityStamp        string     `bun:"security_stamp" json:"-"`
	ConcurrencyStamp     string     `bun:"concurrency_stamp" json:"concurrency_stamp,omitempty"`
	TwoFactorEnabled     bool       `bun:"two_factor_enabled" json:"two_factor_enabled,omitempty"`
	LockoutEnabled       bool       `bun:"lockout_enabled" json:"lockout_enabled,omitempty"`
	LockoutEnd           *time.Time `bun:"lockout_end,nullzero" json:"lockout_end,omitempty"`
	AccessFailedCount    int        `bun:"access_failed_count" json:"access_failed_count,omitempty"`
	CreatedAt            *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt            *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// GetID implements UserIDProvider.
func (u *User) GetID() string { return u.ID }

// Role is scoped to an application rather than a tenant.
type Role struct {
	bun.BaseModel `bun:"table:identity_roles,alias:rol"`

	ID               string `bun:"id,pk" json:"id,omitempty"`
	ApplicationID    string `bun:"application_id" json:"application_id,omitempty"`
	Name             string `bun:"name" json:"name,omitempty"`
	NormalizedName   string `bun:"normalized_name" json:"normalized_name,omitempty"`
	ConcurrencyStamp string `bun:"concurrency_stamp" json:"concurrency_stamp,omitempty"`
}

// GetID implements UserIDProvider for role-subject tokens.
func (r *Role) GetID() string { return r.ID }

// Tenant is the top-level scoping boundary for users.
type Tenant struct {
	bun.BaseModel `bun:"table:identity_tenants,alias:tnt"`

	ID               string `bun:"id,pk" json:"id,omitempty"`
	Name             string `bun:"name" json:"name,omitempty"`
	NormalizedName   string `bun:"normalized_name" json:"normalized_name,omitempty"`
	SecurityStamp    string `bun:"security_stamp" json:"-"`
	ConcurrencyStamp string `bun:"concurrency_stamp" json:"concurrency_stamp,omitempty"`
}

// Application is the scoping boundary for roles.
type Application struct {
	bun.BaseModel `bun:"table:identity_applications,alias:app"`

	ID               string `bun:"id,pk" json:"id,omitempty"`
	Name             string `bun:"name" json:"name,omitempty"`
	NormalizedName   string `bun:"normalized_name" json:"normalized_name,omitempty"`
	SecurityStamp    string `bun:"security_stamp" json:"-"`
	ConcurrencyStamp string `bun:"concurrency_stamp" json:"concurrency_stamp,omitempty"`
}

// UserClaim joins a (type, value) claim to a user inside a tenant.
type UserClaim struct {
	bun.BaseModel `bun:"table:identity_user_claims,alias:ucl"`

	TenantID  string `bun:"tenant_id" json:"tenant_id,omitempty"`
	UserID    string `bun:"user_id" json:"user_id,omitempty"`
	ClaimType string `bun:"claim_type" json:"claim_type,omitempty"`
	Value     string `bun:"claim_value" json:"claim_value,omitempty"`
	ValueType string `bun:"claim_value_type" json:"claim_value_type,omitempty"`
}

// RoleClaim joins a (type, value) claim to a role inside an application.
type RoleClaim struct {
	bun.BaseModel `bun:"table:identity_role_claims,alias:rcl"`

	ApplicationID string `bun:"application_id" json:"application_id,omitempty"`
	RoleID        string `bun:"role_id" json:"role_id,omitempty"`
	ClaimType     string `bun:"claim_type" json:"claim_type,omitempty"`
	Value         string `bun:"claim_value" json:"claim_value,omitempty"`
	ValueType     string `bun:"claim_value_type" json:"claim_value_type,omitempty"`
}

// UserRoleLink is the user <-> role join entity.
type UserRoleLink struct {
	bun.BaseModel `bun:"table:identity_user_roles,alias:url"`

	TenantID string `bun:"tenant_id" json:"tenant_id,omitempty"`
	UserID   string `bun:"user_id" json:"user_id,omitempty"`
	RoleID   string `bun:"role_id" json:"role_id,omitempty"`
}

// UserLogin links an external provider identity to a user.
type UserLogin struct {
	bun.BaseModel `bun:"table:identity_user_logins,alias:ulg"`

	TenantID            string `bun:"tenant_id" json:"tenant_id,omitempty"`
	UserID              string `bun:"user_id" json:"user_id,omitempty"`
	LoginProvider       string `bun:"login_provider" json:"login_provider,omitempty"`
	ProviderKey         string `bun:"provider_key" json:"provider_key,omitempty"`
	ProviderDisplayName string `bun:"provider_display_name" json:"provider_display_name,omitempty"`
}

// UserToken stores a named per-provider token for a user.
type UserToken struct {
	bun.BaseModel `bun:"table:identity_user_tokens,alias:utk"`

	TenantID      string `bun:"tenant_id" json:"tenant_id,omitempty"`
	UserID        string `bun:"user_id" json:"user_id,omitempty"`
	LoginProvider string `bun:"login_provider" json:"login_provider,omitempty"`
	Name          string `bun:"name" json:"name,omitempty"`
	Value         string `bun:"value" json:"-"`
}

// PasswordHistory records prior password hashes so reuse policies can check
// against them.
type PasswordHistory struct {
	bun.BaseModel `bun:"table:identity_password_history,alias:pwh"`

	TenantID     string     `bun:"tenant_id" json:"tenant_id,omitempty"`
	UserID       string     `bun:"user_id" json:"user_id,omitempty"`
	PasswordHash string     `bun:"password_hash" json:"-"`
	CreatedAt    *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}

// CreateUserModel is the creation payload for users.
type CreateUserModel struct {
	UserName             string `json:"username"`
	Email                string `json:"email"`
	PhoneNumber          string `json:"phone_number"`
	Password             string `json:"password"`
	EmailConfirmed       bool   `json:"email_confirmed"`
	PhoneNumberConfirmed bool   `json:"phone_number_confirmed"`
	ConcurrencyStamp     string `json:"concurrency_stamp"`
}

// CreateTenantModel is the creation payload for tenants.
type CreateTenantModel struct {
	Name             string `json:"name"`
	ConcurrencyStamp string `json:"concurrency_stamp"`
}

// CreateApplicationModel is the creation payload for applications.
type CreateApplicationModel struct {
	Name             string `json:"name"`
	ConcurrencyStamp string `json:"concurrency_stamp"`
}

// CreateRoleModel is the creation payload for roles.
type CreateRoleModel struct {
	Name             string `json:"name"`
	ConcurrencyStamp string `json:"concurrency_stamp"`
}

// NewUserFromModel builds a fully formed user from a creation model. Invariant
// establishing defaults (fresh concurrency stamp) are applied here so callers
// never construct half-initialized entities.
func NewUserFromModel(model CreateUserModel) *User {
	user := &User{
		UserName:             model.UserName,
		Email:                model.Email,
		PhoneNumber:          model.PhoneNumber,
		EmailConfirmed:       model.EmailConfirmed,
		PhoneNumberConfirmed: model.PhoneNumberConfirmed,
		ConcurrencyStamp:     model.ConcurrencyStamp,
	}
	if user.ConcurrencyStamp == "" {
		user.ConcurrencyStamp = uuid.NewString()
	}
	return user
}

// NewTenantFromModel builds a tenant from a creation model.
func NewTenantFromModel(model CreateTenantModel) *Tenant {
	tenant := &Tenant{
		Name:             model.Name,
		ConcurrencyStamp: model.ConcurrencyStamp,
	}
	if tenant.ConcurrencyStamp == "" {
		tenant.ConcurrencyStamp = uuid.NewString()
	}
	return tenant
}

// NewApplicationFromModel builds an application from a creation model.
func NewApplicationFromModel(model CreateApplicationModel) *Application {
	app := &Application{
		Name:             model.Name,
		ConcurrencyStamp: model.ConcurrencyStamp,
	}
	if app.ConcurrencyStamp == "" {
		app.ConcurrencyStamp = uuid.NewString()
	}
	return app
}

// NewRoleFromModel builds a role from a creation model.
func NewRoleFromModel(model CreateRoleModel) *Role {
	role := &Role{
		Name:             model.Name,
		ConcurrencyStamp: model.ConcurrencyStamp,
	}
	if role.ConcurrencyStamp == "" {
		role.ConcurrencyStamp = uuid.NewString()
	}
	return role
}
