package api

import (
	"errors"
	"net/http"

	"github.com/okian/pitchtag/internal/adapters/repository"
	service "github.com/okian/pitchtag/internal/app"
	"github.com/okian/pitchtag/internal/domain/actions"
	"github.com/okian/pitchtag/internal/domain/geometry"
	"github.com/okian/pitchtag/internal/domain/ingest"
	"github.com/okian/pitchtag/internal/domain/model"
	"github.com/okian/pitchtag/internal/domain/pitch"
	"github.com/okian/pitchtag/internal/domain/tagging"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("not found")
)

// Error carries the failing operation and a kind callers can match with
// errors.Is, alongside the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Kind != nil:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Kind != nil:
		return e.Op + ": " + e.Kind.Error()
	default:
		return e.Op
	}
}

func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap annotates err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind annotates err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind creates an error of kind for op without a cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// statusFor maps domain errors to HTTP status and a stable code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrMalformedTag),
		errors.Is(err, actions.ErrInvalidDefinition),
		errors.Is(err, geometry.ErrInvalidCanvas),
		errors.Is(err, geometry.ErrNonFinite),
		errors.Is(err, ingest.ErrDecode),
		errors.Is(err, ingest.ErrFieldType),
		errors.Is(err, tagging.ErrUnknownAction),
		errors.Is(err, pitch.ErrUnknownSport),
		errors.Is(err, service.ErrEmptyPatch):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, tagging.ErrIndexOutOfRange):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, model.ErrInteractionMismatch),
		errors.Is(err, repository.ErrExists):
		return http.StatusConflict, "conflict"
	case errors.Is(err, repository.ErrLimitReached):
		return http.StatusTooManyRequests, "limit_reached"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
