package identity

import (
	"context"

	"github.com/google/uuid"
)

// ApplicationManager drives the application lifecycle over an
// ApplicationStore.
type ApplicationManager struct {
	managerCore

	store *ApplicationStore
	opts  Options
	caps  StoreCapabilities

	// Validators run in order on every create and update.
	Validators []ApplicationValidator
}

// NewApplicationManager builds an application manager with the default name
// validator.
func NewApplicationManager(store *ApplicationStore, opts Options, options ...ManagerOption) *ApplicationManager {
	m := &ApplicationManager{
		store:      store,
		opts:       opts,
		caps:       store.Capabilities(),
		Validators: []ApplicationValidator{NewApplicationNameValidator(opts.Application)},
	}
	m.init(opts.Stores, options...)
	return m
}

// Count returns the number of applications.
func (m *ApplicationManager) Count(ctx context.Context) (uint64, error) {
	if err := m.guard(); err != nil {
		return 0, err
	}
	return m.store.Count(ctx)
}

// Create validates, stamps, normalizes, and persists a new application.
func (m *ApplicationManager) Create(ctx context.Context, app *Application) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, app); err != nil {
		return err
	}

	if m.caps.SecurityStamps {
		app.SecurityStamp = uuid.NewString()
	}
	app.ConcurrencyStamp = uuid.NewString()
	app.NormalizedName = maybeNormalizeName(m.normalizer, app.Name)

	return m.store.Create(ctx, app)
}

// Update validates, re-stamps the concurrency stamp, normalizes, and persists
// the application.
func (m *ApplicationManager) Update(ctx context.Context, app *Application) error {
	if err := m.guard(); err != nil {
		return err
	}
	if err := m.validate(ctx, app); err != nil {
		return err
	}

	app.NormalizedName = maybeNormalizeName(m.normalizer, app.Name)
	return m.persist(ctx, app)
}

// UpdateSecurityStamp rotates the application's security stamp.
func (m *ApplicationManager) UpdateSecurityStamp(ctx context.Context, app *Application) error {
	if err := m.guard(); err != nil {
		return err
	}
	if !m.caps.SecurityStamps {
		return ErrNoSecurityStamps
	}

	app.SecurityStamp = uuid.NewString()
	return m.persist(ctx, app)
}

// Delete removes the application.
func (m *ApplicationManager) Delete(ctx context.Context, app *Application) error {
	if err := m.guard(); err != nil {
		return err
	}
	return m.store.Delete(ctx, app)
}

// FindByID resolves an application by id.
func (m *ApplicationManager) FindByID(ctx context.Context, id string) (*Application, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByID(ctx, id)
}

// FindByName resolves an application by name, normalizing first.
func (m *ApplicationManager) FindByName(ctx context.Context, name string) (*Application, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.FindByName(ctx, maybeNormalizeName(m.normalizer, name))
}

// All lists every application. Requires a queryable store.
func (m *ApplicationManager) All(ctx context.Context) ([]*Application, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	if !m.caps.Queryable {
		return nil, ErrStoreNotQueryable
	}
	return m.store.All(ctx)
}

// RolesInApplication lists the roles scoped to an application id.
func (m *ApplicationManager) RolesInApplication(ctx context.Context, applicationID string) ([]*Role, error) {
	if err := m.guard(); err != nil {
		return nil, err
	}
	return m.store.RolesInApplication(ctx, applicationID)
}

func (m *ApplicationManager) validate(ctx context.Context, app *Application) error {
	agg := &ValidationAggregate{}
	for _, v := range m.Validators {
		agg.Errors = append(agg.Errors, v.ValidateApplication(ctx, m, app)...)
	}
	if agg.HasErrors() {
		return agg
	}
	return nil
}

func (m *ApplicationManager) persist(ctx context.Context, app *Application) error {
	priorStamp := app.ConcurrencyStamp
	app.ConcurrencyStamp = uuid.NewString()
	return m.store.Update(ctx, app, priorStamp)
}
