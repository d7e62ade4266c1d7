package supervisor

import (
	"errors"
	"fmt"
)

// Common errors returned by lifecycle operations
var (
	// ErrAlreadyRunning indicates Start was called while a live process
	// handle exists
	ErrAlreadyRunning = errors.New("supervisor: process already running")

	// ErrEmptyCommand indicates the configured launch command is empty
	ErrEmptyCommand = errors.New("supervisor: start command is empty")

	// ErrEarlyExit indicates the process exited during the startup
	// grace window
	ErrEarlyExit = errors.New("supervisor: process exited during startup")

	// ErrComposeFileMissing indicates the compose descriptor file does
	// not exist
	ErrComposeFileMissing = errors.New("supervisor: compose file not found")

	// ErrNoContainerState indicates the runtime inspect response
	// carried no state
	ErrNoContainerState = errors.New("supervisor: container has no state")
)

// OpError represents an error from a lifecycle operation.
type OpError struct {
	// Op is the operation that failed
	Op Operation
	// Unit is the process command or container name involved
	Unit string
	// Err is the underlying error
	Err error
}

// Error returns a formatted error message
func (e *OpError) Error() string {
	return fmt.Sprintf("supervisor %s %q: %v", e.Op.String(), e.Unit, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *OpError) Unwrap() error {
	return e.Err
}
