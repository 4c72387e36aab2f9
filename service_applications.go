package identity

import "context"

// ApplicationService wraps the application manager in the Operation envelope.
type ApplicationService struct {
	apps *ApplicationManager
}

// NewApplicationService builds an application service.
func NewApplicationService(apps *ApplicationManager) *ApplicationService {
	return &ApplicationService{apps: apps}
}

// Create builds an application from the creation model and persists it.
func (s *ApplicationService) Create(ctx context.Context, model CreateApplicationModel) Operation[*Application] {
	app := NewApplicationFromModel(model)
	if err := s.apps.Create(ctx, app); err != nil {
		return Failed[*Application](err)
	}
	return Created(app)
}

// Update persists the given application through the validation pipeline.
func (s *ApplicationService) Update(ctx context.Context, app *Application) Operation[*Application] {
	if err := s.apps.Update(ctx, app); err != nil {
		return failedOrMissing[*Application](err)
	}
	return Ok(app)
}

// DeleteByID removes an application by id. Missing maps to a 404 hint.
func (s *ApplicationService) DeleteByID(ctx context.Context, id string) Operation[struct{}] {
	app, err := s.apps.FindByID(ctx, id)
	if err != nil {
		return failedOrMissing[struct{}](err)
	}
	if err := s.apps.Delete(ctx, app); err != nil {
		return failedOrMissing[struct{}](err)
	}
	return Deleted[struct{}]()
}

// FindByID resolves an application by id.
func (s *ApplicationService) FindByID(ctx context.Context, id string) Operation[*Application] {
	return findOp(s.apps.FindByID(ctx, id))
}

// FindByName resolves an application by name.
func (s *ApplicationService) FindByName(ctx context.Context, name string) Operation[*Application] {
	return findOp(s.apps.FindByName(ctx, name))
}

// List returns every application.
func (s *ApplicationService) List(ctx context.Context) Operation[[]*Application] {
	return findOp(s.apps.All(ctx))
}

// Count returns the number of applications.
func (s *ApplicationService) Count(ctx context.Context) Operation[uint64] {
	count, err := s.apps.Count(ctx)
	if err != nil {
		return Failed[uint64](err)
	}
	return Ok(count)
}

// Roles lists the roles scoped to an application id.
func (s *ApplicationService) Roles(ctx context.Context, applicationID string) Operation[[]*Role] {
	if _, err := s.apps.FindByID(ctx, applicationID); err != nil {
		return failedOrMissing[[]*Role](err)
	}
	return findOp(s.apps.RolesInApplication(ctx, applicationID))
}
