package api

import (
	"errors"
	"net/http"

	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/mq/queue"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/repository"
	"github.com/raihan-suryanom/brawl-master-web/internal/adapters/upstream"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/model"
	"github.com/raihan-suryanom/brawl-master-web/internal/domain/profile"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("not found")
	ErrBackpressure = errors.New("backpressure")
)

// Error carries the handler operation that failed alongside the error kind
// used for status mapping and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return e.Op + ": " + e.Kind.Error()
	case e.Kind == nil:
		return e.Op + ": " + e.Err.Error()
	default:
		return e.Op + ": " + e.Kind.Error() + ": " + e.Err.Error()
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

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap prefixes err with op.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind tags err with a kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// statusFor maps an error to an HTTP status and a machine-readable code.
func statusFor(err error) (int, string) {
	var se *upstream.StatusError
	switch {
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, model.ErrInvalidSubmission),
		errors.Is(err, upstream.ErrInvalidArgument),
		errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, upstream.ErrNotFound),
		errors.Is(err, profile.ErrEmptyPopulation):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrBackpressure):
		return http.StatusTooManyRequests, "backpressure"
	case errors.As(err, &se) && se.StatusCode < http.StatusInternalServerError && se.StatusCode != http.StatusTooManyRequests:
		return http.StatusBadRequest, "rejected"
	case errors.Is(err, upstream.ErrUpstream):
		return http.StatusBadGateway, "upstream_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
