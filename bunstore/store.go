// Package bunstore provides a bun-backed DataStore adapter. Examples are
// translated into WHERE equality predicates using the models' bun tags.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-identity"
)

// Store maps the storage port onto a bun database.
type Store struct {
	db *bun.DB
}

var _ identity.DataStore = (*Store)(nil)

// New builds a store over an initialized bun database. Schema management is
// the caller's responsibility; see CreateTables for tests.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// CreateTables creates every identity table. Intended for tests and tooling,
// not production migrations.
func (s *Store) CreateTables(ctx context.Context) error {
	models := []any{
		(*identity.User)(nil),
		(*identity.Role)(nil),
		(*identity.Tenant)(nil),
		(*identity.Application)(nil),
		(*identity.UserClaim)(nil),
		(*identity.RoleClaim)(nil),
		(*identity.UserRoleLink)(nil),
		(*identity.UserLogin)(nil),
		(*identity.UserToken)(nil),
		(*identity.PasswordHistory)(nil),
	}
	for _, model := range models {
		if _, err := s.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}
	return nil
}

// Count returns the number of rows in a collection.
func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count, err := s.db.NewSelect().Table(collection).Count(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "count failed")
	}
	return uint64(count), nil
}

// Create inserts a record, mapping unique-constraint violations to
// AlreadyExists.
func (s *Store) Create(ctx context.Context, collection string, record any) (identity.CreateOutcome, error) {
	if err := ctx.Err(); err != nil {
		return identity.CreateOutcomeCreated, err
	}

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return identity.CreateOutcomeAlreadyExists, nil
		}
		return identity.CreateOutcomeCreated, goerrors.Wrap(err, goerrors.CategoryInternal, "insert failed")
	}
	return identity.CreateOutcomeCreated, nil
}

// UpdateByExample replaces matching rows with record.
func (s *Store) UpdateByExample(ctx context.Context, collection string, record, example any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	conds, err := exampleConditions(example)
	if err != nil {
		return 0, err
	}
	if len(conds) == 0 {
		return 0, goerrors.New("update requires a non-empty example", goerrors.CategoryBadInput)
	}

	q := s.db.NewUpdate().Model(record)
	for _, c := range conds {
		q = q.Where("? = ?", bun.Ident(c.column), c.value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "update failed")
	}
	return rowsAffected(res)
}

// DeleteByExample removes matching rows.
func (s *Store) DeleteByExample(ctx context.Context, collection string, example any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	conds, err := exampleConditions(example)
	if err != nil {
		return 0, err
	}
	if len(conds) == 0 {
		return 0, goerrors.New("delete requires a non-empty example", goerrors.CategoryBadInput)
	}

	q := s.db.NewDelete().Model(example)
	for _, c := range conds {
		q = q.Where("? = ?", bun.Ident(c.column), c.value)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "delete failed")
	}
	return rowsAffected(res)
}

// QueryByExample scans matching rows into dest, a pointer to a slice of the
// collection's model type.
func (s *Store) QueryByExample(ctx context.Context, collection string, example, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	conds, err := exampleConditions(example)
	if err != nil {
		return err
	}

	q := s.db.NewSelect().Model(dest)
	for _, c := range conds {
		q = q.Where("? = ?", bun.Ident(c.column), c.value)
	}

	if err := q.Scan(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
	}
	return nil
}

// QuerySingleByExample scans the first matching row into dest, reporting
// whether anything matched.
func (s *Store) QuerySingleByExample(ctx context.Context, collection string, example, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	conds, err := exampleConditions(example)
	if err != nil {
		return false, err
	}

	q := s.db.NewSelect().Model(dest).Limit(1)
	for _, c := range conds {
		q = q.Where("? = ?", bun.Ident(c.column), c.value)
	}

	if err := q.Scan(ctx); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "select failed")
	}
	return true, nil
}

type condition struct {
	column string
	value  any
}

// exampleConditions turns the non-zero fields of an example struct into
// column equality predicates, reading column names from the bun tags. A nil
// example yields no predicates.
func exampleConditions(example any) ([]condition, error) {
	if example == nil {
		return nil, nil
	}

	v := reflect.Indirect(reflect.ValueOf(example))
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return nil, goerrors.New("example must be a struct or a pointer to one", goerrors.CategoryBadInput)
	}

	t := v.Type()
	var conds []condition
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous || !field.IsExported() {
			continue
		}
		fv := v.Field(i)
		if fv.IsZero() {
			continue
		}

		column := strings.Split(field.Tag.Get("bun"), ",")[0]
		if column == "" || column == "-" {
			continue
		}
		conds = append(conds, condition{column: column, value: fv.Interface()})
	}
	return conds, nil
}

func rowsAffected(res sql.Result) (int64, error) {
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "affected row count unavailable")
	}
	return affected, nil
}

// isUniqueViolation matches the driver-specific unique constraint errors for
// the sqlite and postgres drivers bun is commonly paired with.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
