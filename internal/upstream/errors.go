package upstream

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated means no usable credential could be resolved. Callers
// branch into guest behavior on it instead of reporting an error.
var ErrUnauthenticated = errors.New("upstream: unauthenticated")

// StatusError carries a non-2xx upstream response. The message is the
// upstream's own when it sent one.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream: %d %s", e.Code, e.Message)
}

func (e *StatusError) ClientError() bool {
	return e.Code >= 400 && e.Code < 500
}

// NetworkError wraps a transport-level failure reaching the upstream.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("upstream: %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated)
}
