package supervisor

import "time"

// Default timings for the process lifecycle sequences.
const (
	// DefaultStartupGrace is how long Start waits before re-probing a
	// freshly spawned process for an immediate crash.
	DefaultStartupGrace = 500 * time.Millisecond

	// DefaultStopTimeout is the ceiling for the graceful-termination
	// window before Stop escalates to SIGKILL.
	DefaultStopTimeout = 10 * time.Second

	// DefaultStopPoll is the interval at which Stop re-checks whether
	// the process has exited.
	DefaultStopPoll = 100 * time.Millisecond

	// DefaultKillSettle is the delay applied after SIGKILL before the
	// final reap attempt, and between Stop and Start during Restart.
	DefaultKillSettle = 500 * time.Millisecond

	// DefaultContainerStopGrace is the graceful timeout, in seconds,
	// passed to the container runtime for stop/restart. The runtime
	// performs its own TERM-to-KILL escalation within this window.
	DefaultContainerStopGrace = 10

	// DefaultComposeTimeout bounds a single compose-tool invocation. A
	// step exceeding it is reported as a soft failure, not a hang.
	DefaultComposeTimeout = 5 * time.Minute

	// DefaultWatchDebounce coalesces rapid compose-file change events.
	DefaultWatchDebounce = 250 * time.Millisecond
)

// Operation identifies a lifecycle operation for error reporting.
type Operation int

const (
	// OpUnknown represents an unknown operation
	OpUnknown Operation = iota
	// OpStart launches or starts a unit
	OpStart
	// OpStop terminates a unit
	OpStop
	// OpRestart stops and starts a unit
	OpRestart
	// OpStatus queries a unit's status
	OpStatus
	// OpValidate checks the supervisor's configuration
	OpValidate
	// OpUpdate runs a pull-and-recreate pipeline
	OpUpdate
	// OpWatch observes the compose descriptor for changes
	OpWatch
)

// Operation string constants
const (
	opUnknownStr  = "unknown"
	opStartStr    = "start"
	opStopStr     = "stop"
	opRestartStr  = "restart"
	opStatusStr   = "status"
	opValidateStr = "validate"
	opUpdateStr   = "update"
	opWatchStr    = "watch"
)

// String returns the string representation of an Operation
func (op Operation) String() string {
	switch op {
	case OpStart:
		return opStartStr
	case OpStop:
		return opStopStr
	case OpRestart:
		return opRestartStr
	case OpStatus:
		return opStatusStr
	case OpValidate:
		return opValidateStr
	case OpUpdate:
		return opUpdateStr
	case OpWatch:
		return opWatchStr
	default:
		return opUnknownStr
	}
}
