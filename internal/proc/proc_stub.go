//go:build !unix

// Package proc provides platform-specific process signalling helpers.
package proc

import (
	"os"
	"syscall"
)

// Terminate requests cooperative shutdown. Without Unix signals the
// best available request is os.Interrupt.
func Terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(os.Interrupt)
}

// Kill forcefully terminates the process.
func Kill(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}

// Alive reports whether pid currently refers to a live process.
func Alive(pid int) bool {
	p, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return p.Signal(syscall.Signal(0)) == nil
}
