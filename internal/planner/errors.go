package planner

import (
	"errors"
	"fmt"
)

// ErrAuthExpired signals that the access token was rejected upstream.
// The caller is expected to refresh credentials and try again on its
// next cycle; the client does not retry on its own.
var ErrAuthExpired = errors.New("planner: access token expired")

// ErrNoSuchPlace is returned when a place-name lookup yields no hits.
var ErrNoSuchPlace = errors.New("planner: no matching place")

// TransportError wraps network and decode failures talking to the
// trip-planning API. Callers treat it as an empty result for the cycle.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("planner: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
