package readiness

import "errors"

// ErrTimeout is returned when a resource does not reach the awaited state
// before the wait deadline.
var ErrTimeout = errors.New("timeout exceeded")

// ErrPodFailed is returned when an awaited pod reaches a terminal failure phase.
var ErrPodFailed = errors.New("pod failed")

// ErrUnsupportedKind is returned for resource kinds the poller cannot await.
var ErrUnsupportedKind = errors.New("unsupported resource kind")
