package identity_test

import (
	"sync"
	"time"

	"github.com/goliatone/go-identity"
	"github.com/goliatone/go-identity/memstore"
)

var testScope = identity.Scope{
	TenantID:        "tenant-1",
	TenantName:      "Acme",
	ApplicationID:   "app-1",
	ApplicationName: "Portal",
}

// testEnv wires a full identity stack over the in-memory store.
type testEnv struct {
	store   *memstore.Store
	users   *identity.UserManager
	roles   *identity.RoleManager
	tenants *identity.TenantManager
	apps    *identity.ApplicationManager
}

func newTestEnv(options ...identity.ManagerOption) *testEnv {
	return newTestEnvWithOptions(identity.DefaultOptions(), options...)
}

func newTestEnvWithOptions(opts identity.Options, options ...identity.ManagerOption) *testEnv {
	store := memstore.New()

	userStore := identity.NewUserStore(store, testScope, opts.Stores, identity.UppercaseNormalizer{})
	roleStore := identity.NewRoleStore(store, testScope, opts.Stores)
	tenantStore := identity.NewTenantStore(store, opts.Stores)
	appStore := identity.NewApplicationStore(store, opts.Stores)

	return &testEnv{
		store:   store,
		users:   identity.NewUserManager(userStore, opts, options...),
		roles:   identity.NewRoleManager(roleStore, opts, options...),
		tenants: identity.NewTenantManager(tenantStore, opts, options...),
		apps:    identity.NewApplicationManager(appStore, opts, options...),
	}
}

func fixedClock(at time.Time) identity.Clock {
	return func() time.Time { return at }
}

// recordingLogger captures log lines for assertions.
type recordingLogger struct {
	mu    sync.Mutex
	warns []string
	errs  []string
}

func (l *recordingLogger) Debug(format string, args ...any) {}
func (l *recordingLogger) Info(format string, args ...any)  {}

func (l *recordingLogger) Warn(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, format)
}

func (l *recordingLogger) Error(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, format)
}

func (l *recordingLogger) warnCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warns)
}
