package identity

// Scope carries the tenant/application partition resolved for the current
// request. Entity stores fold the relevant ids into every example so one
// tenant can never observe another's rows.
type Scope struct {
	TenantID        string
	TenantName      string
	ApplicationID   string
	ApplicationName string
}
