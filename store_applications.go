package identity

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// ApplicationStore maps application operations onto DataStore calls.
type ApplicationStore struct {
	store DataStore
	opts  StoreOptions
	caps  StoreCapabilities
}

// NewApplicationStore builds an application store over the given port.
func NewApplicationStore(store DataStore, opts StoreOptions) *ApplicationStore {
	return &ApplicationStore{
		store: store,
		opts:  opts,
		caps:  StoreCapabilities{SecurityStamps: true, Queryable: true},
	}
}

// Capabilities reports the optional features this store supports.
func (s *ApplicationStore) Capabilities() StoreCapabilities { return s.caps }

// Count returns the number of applications.
func (s *ApplicationStore) Count(ctx context.Context) (uint64, error) {
	return s.store.Count(ctx, CollectionApplications)
}

// Create persists a new application, assigning an id when absent.
func (s *ApplicationStore) Create(ctx context.Context, app *Application) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "application create cancelled")
	}

	if app.ConcurrencyStamp == "" {
		app.ConcurrencyStamp = uuid.NewString()
	}

	if app.ID == "" {
		id, err := GenerateKey(s.opts.KeyKind)
		if err != nil {
			return err
		}
		app.ID = id
	}

	outcome, err := s.store.Create(ctx, CollectionApplications, app)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist application")
	}
	if outcome == CreateOutcomeAlreadyExists {
		return goerrors.New("application already exists", goerrors.CategoryConflict).
			WithCode(goerrors.CodeConflict)
	}
	return nil
}

// Update overwrites the application matched by (id, priorStamp).
func (s *ApplicationStore) Update(ctx context.Context, app *Application, priorStamp string) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "application update cancelled")
	}

	if app.ConcurrencyStamp == "" {
		app.ConcurrencyStamp = uuid.NewString()
	}

	example := &Application{ID: app.ID, ConcurrencyStamp: priorStamp}
	affected, err := s.store.UpdateByExample(ctx, CollectionApplications, app, example)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update application")
	}
	return checkSingleRow(affected, ErrConcurrencyConflict)
}

// Delete removes the application. Dependent roles must be removed first.
func (s *ApplicationStore) Delete(ctx context.Context, app *Application) error {
	if err := ctx.Err(); err != nil {
		return wrapCancelled(err, "application delete cancelled")
	}

	deleted, err := s.store.DeleteByExample(ctx, CollectionApplications, &Application{ID: app.ID})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete application")
	}
	return checkSingleRow(deleted, ErrApplicationNotFound)
}

// FindByID resolves an application by id.
func (s *ApplicationStore) FindByID(ctx context.Context, id string) (*Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "application lookup cancelled")
	}

	app := &Application{}
	found, err := s.store.QuerySingleByExample(ctx, CollectionApplications, &Application{ID: id}, app)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "application lookup failed")
	}
	if !found {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

// FindByName resolves an application by normalized name.
func (s *ApplicationStore) FindByName(ctx context.Context, normalizedName string) (*Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "application lookup cancelled")
	}

	app := &Application{}
	found, err := s.store.QuerySingleByExample(ctx, CollectionApplications, &Application{NormalizedName: normalizedName}, app)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "application lookup failed")
	}
	if !found {
		return nil, ErrApplicationNotFound
	}
	return app, nil
}

// All lists every application.
func (s *ApplicationStore) All(ctx context.Context) ([]*Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "application listing cancelled")
	}

	var apps []*Application
	if err := s.store.QueryByExample(ctx, CollectionApplications, nil, &apps); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "application listing failed")
	}
	return apps, nil
}

// RolesInApplication lists the roles belonging to an application id.
func (s *ApplicationStore) RolesInApplication(ctx context.Context, applicationID string) ([]*Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, wrapCancelled(err, "application role listing cancelled")
	}

	var roles []*Role
	if err := s.store.QueryByExample(ctx, CollectionRoles, &Role{ApplicationID: applicationID}, &roles); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "application role listing failed")
	}
	return roles, nil
}
