// Package memstore provides an in-memory DataStore adapter. It exists for
// tests and for single-process deployments that do not need durability.
package memstore

import (
	"context"
	"reflect"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-identity"
)

// Store keeps every collection in process memory, guarded by a single
// RWMutex. Records are copied on the way in and on the way out, so callers
// can never mutate stored state through a retained pointer.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]any
}

var _ identity.DataStore = (*Store)(nil)

// New builds an empty store.
func New() *Store {
	return &Store{collections: make(map[string][]any)}
}

// Count returns the number of records in a collection.
func (s *Store) Count(ctx context.Context, collection string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return uint64(len(s.collections[collection])), nil
}

// Create inserts a record. A record whose ID matches an existing record in
// the collection reports AlreadyExists.
func (s *Store) Create(ctx context.Context, collection string, record any) (identity.CreateOutcome, error) {
	if err := ctx.Err(); err != nil {
		return identity.CreateOutcomeCreated, err
	}
	if record == nil {
		return identity.CreateOutcomeCreated, goerrors.New("record must not be nil", goerrors.CategoryBadInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := recordID(record); ok {
		for _, existing := range s.collections[collection] {
			if existingID, has := recordID(existing); has && existingID == id {
				return identity.CreateOutcomeAlreadyExists, nil
			}
		}
	}

	s.collections[collection] = append(s.collections[collection], clone(record))
	return identity.CreateOutcomeCreated, nil
}

// UpdateByExample replaces every matching record with a copy of record.
func (s *Store) UpdateByExample(ctx context.Context, collection string, record, example any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	rows := s.collections[collection]
	for i, existing := range rows {
		if matches(example, existing) {
			rows[i] = clone(record)
			affected++
		}
	}
	return affected, nil
}

// DeleteByExample removes every matching record.
func (s *Store) DeleteByExample(ctx context.Context, collection string, example any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var affected int64
	rows := s.collections[collection]
	kept := rows[:0]
	for _, existing := range rows {
		if matches(example, existing) {
			affected++
			continue
		}
		kept = append(kept, existing)
	}
	s.collections[collection] = kept
	return affected, nil
}

// QueryByExample scans every matching record into dest, a pointer to a slice
// of the collection's record type.
func (s *Store) QueryByExample(ctx context.Context, collection string, example, dest any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer || destVal.Elem().Kind() != reflect.Slice {
		return goerrors.New("dest must be a pointer to a slice", goerrors.CategoryBadInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	sliceVal := destVal.Elem()
	elemType := sliceVal.Type().Elem()
	for _, existing := range s.collections[collection] {
		if !matches(example, existing) {
			continue
		}
		out, err := coerce(clone(existing), elemType)
		if err != nil {
			return err
		}
		sliceVal.Set(reflect.Append(sliceVal, out))
	}
	return nil
}

// QuerySingleByExample scans the first matching record into dest, a pointer
// to the record type, reporting whether anything matched.
func (s *Store) QuerySingleByExample(ctx context.Context, collection string, example, dest any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	destVal := reflect.ValueOf(dest)
	if destVal.Kind() != reflect.Pointer {
		return false, goerrors.New("dest must be a pointer", goerrors.CategoryBadInput)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, existing := range s.collections[collection] {
		if !matches(example, existing) {
			continue
		}
		out, err := coerce(clone(existing), destVal.Elem().Type())
		if err != nil {
			return false, err
		}
		destVal.Elem().Set(out)
		return true, nil
	}
	return false, nil
}

// matches reports whether record satisfies the example: every non-zero field
// of the example must compare equal. A nil example matches everything.
func matches(example, record any) bool {
	if example == nil {
		return true
	}

	ev := reflect.Indirect(reflect.ValueOf(example))
	rv := reflect.Indirect(reflect.ValueOf(record))
	if !ev.IsValid() || !rv.IsValid() || ev.Type() != rv.Type() {
		return false
	}

	t := ev.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous || !field.IsExported() {
			continue
		}
		fv := ev.Field(i)
		if fv.IsZero() {
			continue
		}
		if !reflect.DeepEqual(fv.Interface(), rv.Field(i).Interface()) {
			return false
		}
	}
	return true
}

// clone copies a record so stored state and returned state never alias.
func clone(record any) any {
	v := reflect.ValueOf(record)
	if v.Kind() == reflect.Pointer {
		c := reflect.New(v.Elem().Type())
		c.Elem().Set(v.Elem())
		return c.Interface()
	}
	c := reflect.New(v.Type())
	c.Elem().Set(v)
	return c.Elem().Interface()
}

// coerce adapts a cloned record to the destination element type, handling
// pointer/value mismatches between what was stored and what is requested.
func coerce(record any, want reflect.Type) (reflect.Value, error) {
	v := reflect.ValueOf(record)
	if v.Type() == want {
		return v, nil
	}
	if v.Kind() == reflect.Pointer && v.Elem().Type() == want {
		return v.Elem(), nil
	}
	if want.Kind() == reflect.Pointer && v.Type() == want.Elem() {
		p := reflect.New(want.Elem())
		p.Elem().Set(v)
		return p, nil
	}
	return reflect.Value{}, goerrors.New("record type does not match destination", goerrors.CategoryBadInput)
}

// recordID extracts a non-empty string ID field when the record has one.
func recordID(record any) (string, bool) {
	v := reflect.Indirect(reflect.ValueOf(record))
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return "", false
	}
	f := v.FieldByName("ID")
	if !f.IsValid() || f.Kind() != reflect.String || f.String() == "" {
		return "", false
	}
	return f.String(), true
}
