//go:build unix

// Package proc provides platform-specific process signalling helpers.
package proc

import "golang.org/x/sys/unix"

// Terminate requests cooperative shutdown by sending SIGTERM.
func Terminate(pid int) error {
	return unix.Kill(pid, unix.SIGTERM)
}

// Kill forcefully terminates the process with SIGKILL.
func Kill(pid int) error {
	return unix.Kill(pid, unix.SIGKILL)
}

// Alive reports whether pid currently refers to a live process, using a
// null-signal probe. EPERM means the process exists but belongs to
// another user, so it still counts as alive.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
