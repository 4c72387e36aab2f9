package identity

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Error codes surfaced through Operation envelopes. Validators add their own
// per-field codes (DuplicateUserName, InvalidEmail, ...) on top of these.
const (
	CodeValidationFailed = "ValidationFailed"
	CodeResourceMissing  = "ResourceMissing"
	CodeIdentityError    = "IdentityError"
	CodeInternalError    = "InternalError"
)

// OperationError is a single error entry inside an Operation. StatusHint is
// advisory for HTTP boundaries: not-found 404, validation 400, and so on.
type OperationError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusHint int    `json:"status_hint,omitempty"`
}

// Operation is the uniform envelope returned by every service-layer call. No
// error ever escapes a service as a panic or a bare error; the boundary layer
// translates the envelope into transport status codes.
type Operation[T any] struct {
	Succeeded  bool             `json:"succeeded"`
	Refused    bool             `json:"refused,omitempty"`
	Data       T                `json:"data,omitempty"`
	Errors     []OperationError `json:"errors,omitempty"`
	StatusHint int              `json:"status_hint,omitempty"`
}

// Ok wraps data into a succeeded Operation with a 200 hint.
func Ok[T any](data T) Operation[T] {
	return Operation[T]{Succeeded: true, Data: data, StatusHint: http.StatusOK}
}

// Created wraps freshly persisted data with a 201 hint.
func Created[T any](data T) Operation[T] {
	return Operation[T]{Succeeded: true, Data: data, StatusHint: http.StatusCreated}
}

// Deleted reports a successful deletion with a 204 hint.
func Deleted[T any]() Operation[T] {
	return Operation[T]{Succeeded: true, StatusHint: http.StatusNoContent}
}

// NotFound reports a missing resource with a 404 hint.
func NotFound[T any](message string) Operation[T] {
	return Operation[T]{
		StatusHint: http.StatusNotFound,
		Errors: []OperationError{{
			Code:       CodeResourceMissing,
			Message:    message,
			StatusHint: http.StatusNotFound,
		}},
	}
}

// Refused reports a sign-in refusal (locked out, not allowed, missing second
// factor). Multiple conditions may apply at once; each gets its own entry.
func Refused[T any](data T, errs ...OperationError) Operation[T] {
	for i := range errs {
		if errs[i].StatusHint == 0 {
			errs[i].StatusHint = http.StatusUnauthorized
		}
	}
	return Operation[T]{
		Refused:    true,
		Data:       data,
		Errors:     errs,
		StatusHint: http.StatusUnauthorized,
	}
}

// Failed converts an error into a failed Operation, mapping categorized
// errors onto codes and status hints. Validation failures arrive already
// aggregated (one entry per violated rule).
func Failed[T any](err error) Operation[T] {
	op := Operation[T]{StatusHint: http.StatusBadRequest}

	var agg *ValidationAggregate
	if goerrors.As(err, &agg) {
		for _, fe := range agg.Errors {
			op.Errors = append(op.Errors, OperationError{
				Code:       fe.Code,
				Message:    fe.Message,
				StatusHint: http.StatusBadRequest,
			})
		}
		return op
	}

	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		entry := OperationError{
			Code:       CodeIdentityError,
			Message:    rich.Message,
			StatusHint: http.StatusBadRequest,
		}
		if rich.TextCode != "" {
			entry.Code = rich.TextCode
		}
		switch rich.Category {
		case goerrors.CategoryNotFound:
			entry.Code = CodeResourceMissing
			entry.StatusHint = http.StatusNotFound
			op.StatusHint = http.StatusNotFound
		case goerrors.CategoryAuth, goerrors.CategoryAuthz:
			entry.StatusHint = http.StatusUnauthorized
			op.StatusHint = http.StatusUnauthorized
		case goerrors.CategoryConflict:
			entry.StatusHint = http.StatusConflict
			op.StatusHint = http.StatusConflict
		case goerrors.CategoryInternal:
			entry.Code = CodeInternalError
			entry.StatusHint = http.StatusInternalServerError
			op.StatusHint = http.StatusInternalServerError
		}
		op.Errors = append(op.Errors, entry)
		return op
	}

	// Unexpected errors never echo internal detail to the caller.
	op.StatusHint = http.StatusInternalServerError
	op.Errors = append(op.Errors, OperationError{
		Code:       CodeInternalError,
		Message:    "an internal error occurred",
		StatusHint: http.StatusInternalServerError,
	})
	return op
}

// HasErrors reports whether any error entries are attached.
func (o Operation[T]) HasErrors() bool {
	return len(o.Errors) > 0
}

// FirstError returns the first error entry, if any.
func (o Operation[T]) FirstError() (OperationError, bool) {
	if len(o.Errors) == 0 {
		return OperationError{}, false
	}
	return o.Errors[0], true
}
