package weather

import (
	"errors"
	"fmt"
)

// FailureKind classifies why a query could not produce a Report.
// Each kind is itself an error so callers can match with errors.Is.
type FailureKind int

const (
	InvalidInput FailureKind = iota + 1
	Network
	NotFound
	MalformedResponse
)

func (k FailureKind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Network:
		return "network"
	case NotFound:
		return "not_found"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "unknown"
	}
}

func (k FailureKind) Error() string { return k.String() }

// QueryError carries the failure kind together with the operation that
// produced it and the underlying cause, if any.
type QueryError struct {
	Kind FailureKind
	Op   string
	Err  error
}

// NewError builds a *QueryError. err may be nil.
func NewError(kind FailureKind, op string, err error) error {
	return &QueryError{Kind: kind, Op: op, Err: err}
}

func (e *QueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool {
	k, ok := target.(FailureKind)
	return ok && k == e.Kind
}

// KindOf reports the failure kind carried by err. Errors that were not
// produced by this package are reported as Network failures, since the only
// foreign errors that reach the orchestrator come from transport.
func KindOf(err error) (FailureKind, bool) {
	if err == nil {
		return 0, false
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Kind, true
	}
	var k FailureKind
	if errors.As(err, &k) {
		return k, true
	}
	return Network, true
}
