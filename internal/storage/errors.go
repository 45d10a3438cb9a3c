package storage

import (
	"errors"
	"fmt"
)

// ErrUnavailable marks failures of the underlying store. Callers surface it
// as a server error; retries are the client's responsibility.
var ErrUnavailable = errors.New("storage unavailable")

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, err)
}
