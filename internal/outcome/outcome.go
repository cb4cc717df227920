// Package outcome flattens the results of pool and store calls into one
// kind and maps that kind to an HTTP status. Handlers never pick a status
// themselves.
package outcome

import (
	"errors"
	"net/http"

	"github.com/leapstack-labs/jokebox/internal/pool"
	"github.com/leapstack-labs/jokebox/internal/store"
)

// Kind is the flattened result of an operation.
type Kind int

const (
	// Success means the operation completed and, for mutations, changed rows.
	Success Kind = iota
	// Created means a new record was stored.
	Created
	// NoChange means a mutation succeeded but affected zero rows.
	NoChange
	// NotFound means the query succeeded and the entity is absent.
	NotFound
	// AcquisitionFailed means no connection could be obtained.
	AcquisitionFailed
	// QueryFailed means the backend failed to execute the statement.
	QueryFailed
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Created:
		return "created"
	case NoChange:
		return "no_change"
	case NotFound:
		return "not_found"
	case AcquisitionFailed:
		return "acquisition_failed"
	case QueryFailed:
		return "query_failed"
	default:
		return "unknown"
	}
}

// Op names an operation handler.
type Op string

// Operations exposed over HTTP.
const (
	OpCreate     Op = "create"
	OpReadOne    Op = "read_one"
	OpReadAll    Op = "read_all"
	OpReadRandom Op = "read_random"
	OpDeleteOne  Op = "delete_one"
	OpDeleteAll  Op = "delete_all"
)

// Outcome is the result of one operation as seen by a handler.
type Outcome struct {
	Kind Kind
	// Err is set for AcquisitionFailed and QueryFailed.
	Err error
}

// IsFailure reports whether the outcome is an internal failure.
func (o Outcome) IsFailure() bool {
	return o.Kind == AcquisitionFailed || o.Kind == QueryFailed
}

// Of builds a success outcome of the given kind.
func Of(k Kind) Outcome {
	return Outcome{Kind: k}
}

// FromError flattens an error returned by the pool or the store.
// Anything that is not an acquisition failure counts as a query failure,
// including a caller that went away while the query ran.
func FromError(err error) Outcome {
	var acqErr *pool.AcquisitionError
	if errors.As(err, &acqErr) {
		return Outcome{Kind: AcquisitionFailed, Err: err}
	}
	return Outcome{Kind: QueryFailed, Err: err}
}

// FromRecord classifies a lookup that returns nil when absent.
func FromRecord(rec *store.Record, err error) Outcome {
	if err != nil {
		return FromError(err)
	}
	if rec == nil {
		return Of(NotFound)
	}
	return Of(Success)
}

// FromDeleted classifies a deletion by the number of rows removed.
func FromDeleted(n int64, err error) Outcome {
	if err != nil {
		return FromError(err)
	}
	if n == 0 {
		return Of(NoChange)
	}
	return Of(Success)
}

// Classify maps an operation's outcome to the HTTP status returned to the caller.
func Classify(op Op, o Outcome) int {
	switch o.Kind {
	case AcquisitionFailed, QueryFailed:
		return http.StatusInternalServerError
	case NotFound:
		return http.StatusNotFound
	case Created:
		return http.StatusCreated
	case NoChange:
		if op == OpDeleteOne {
			return http.StatusNoContent
		}
		return http.StatusNotModified
	case Success:
		if op == OpDeleteOne {
			return http.StatusNoContent
		}
		return http.StatusOK
	default:
		return http.StatusInternalServerError
	}
}
