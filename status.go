package supervisor

import "strings"

// ContainerStatus is the closed set of container states this package
// reports. Every runtime-reported state string maps to exactly one
// value; anything unrecognized maps to StatusUnknown rather than
// failing, so newer runtime states degrade gracefully.
type ContainerStatus int

const (
	// StatusUnknown is the fallback for unrecognized or empty states
	StatusUnknown ContainerStatus = iota
	// StatusRunning indicates the container is running
	StatusRunning
	// StatusStopped indicates the container has exited
	StatusStopped
	// StatusPaused indicates the container is paused
	StatusPaused
	// StatusRestarting indicates the runtime is restarting the container
	StatusRestarting
	// StatusDead indicates the container is dead
	StatusDead
	// StatusCreated indicates the container was created but never started
	StatusCreated
	// StatusRemoving indicates the container is being removed
	StatusRemoving
)

// Container status string constants
const (
	statusUnknownStr    = "unknown"
	statusRunningStr    = "running"
	statusStoppedStr    = "stopped"
	statusPausedStr     = "paused"
	statusRestartingStr = "restarting"
	statusDeadStr       = "dead"
	statusCreatedStr    = "created"
	statusRemovingStr   = "removing"
)

// String returns the string representation of a ContainerStatus
func (s ContainerStatus) String() string {
	switch s {
	case StatusRunning:
		return statusRunningStr
	case StatusStopped:
		return statusStoppedStr
	case StatusPaused:
		return statusPausedStr
	case StatusRestarting:
		return statusRestartingStr
	case StatusDead:
		return statusDeadStr
	case StatusCreated:
		return statusCreatedStr
	case StatusRemoving:
		return statusRemovingStr
	default:
		return statusUnknownStr
	}
}

// ContainerStatusFromString maps a runtime-reported state string to the
// closed ContainerStatus set. The mapping is total: the runtime's
// "exited" becomes StatusStopped, and an empty or unrecognized state
// becomes StatusUnknown, never an error.
func ContainerStatusFromString(state string) ContainerStatus {
	switch state {
	case "running":
		return StatusRunning
	case "exited":
		return StatusStopped
	case "paused":
		return StatusPaused
	case "restarting":
		return StatusRestarting
	case "dead":
		return StatusDead
	case "created":
		return StatusCreated
	case "removing":
		return StatusRemoving
	default:
		return StatusUnknown
	}
}

// ContainerInfo describes one container at the moment it was inspected.
// Values are recomputed on every query and never cached.
type ContainerInfo struct {
	// Name is the container name with any leading path separator stripped
	Name string
	// Status is the mapped container state
	Status ContainerStatus
	// Image is the image reference the container was created from
	Image string
}

// normalizeName strips the leading slash the runtime prefixes onto
// container names.
func normalizeName(name string) string {
	return strings.TrimPrefix(name, "/")
}

// UpdateOutcome reports the result of an update pipeline. A failing
// external-tool step is represented here as data rather than as an
// error return, so batch callers can report partial progress.
type UpdateOutcome struct {
	// Success reports whether every step of the pipeline succeeded
	Success bool
	// Output is the ordered concatenation of the stdout of every step
	// that was attempted
	Output string
	// Err is the stderr transcript of the failing step, empty on success
	Err string
}
