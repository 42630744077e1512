package docker

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotReady indicates the daemon did not answer the probe in time
var ErrNotReady = errors.New("docker: daemon not ready")

// NotReadyError is returned by WaitReady when the timeout elapses
type NotReadyError struct {
	// Timeout is the wait budget that was exhausted
	Timeout time.Duration
	// Attempts is the number of probes run
	Attempts int
	// Last is the error of the final probe
	Last error
}

func (e *NotReadyError) Error() string {
	msg := fmt.Sprintf("docker daemon did not become ready within %s (%d probes)", e.Timeout, e.Attempts)
	if e.Last != nil {
		msg += ": " + e.Last.Error()
	}
	return msg
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}

func (e *NotReadyError) Unwrap() error {
	return e.Last
}
