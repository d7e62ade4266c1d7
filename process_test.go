//go:build unix

package supervisor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestProcess(t *testing.T, command ...string) *ProcessSupervisor {
	t.Helper()

	s := NewProcessSupervisor(t.TempDir(), command,
		WithProcessLogger(discardLogger()),
		WithStartupGrace(100*time.Millisecond),
		WithKillSettle(100*time.Millisecond),
	)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProcessStartEmptyCommand(t *testing.T) {
	s := newTestProcess(t)

	err := s.Start(context.Background())
	if !errors.Is(err, ErrEmptyCommand) {
		t.Fatalf("err = %v, want ErrEmptyCommand", err)
	}
}

func TestProcessStartAlreadyRunning(t *testing.T) {
	s := newTestProcess(t, "sleep", "30")

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	pid, ok := s.PID()
	if !ok {
		t.Fatal("PID() not available after Start")
	}

	err := s.Start(context.Background())
	if !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start err = %v, want ErrAlreadyRunning", err)
	}

	// The existing handle must be untouched.
	if got, _ := s.PID(); got != pid {
		t.Errorf("PID changed from %d to %d after rejected Start", pid, got)
	}
	if !s.IsRunning() {
		t.Error("process no longer running after rejected Start")
	}
}

func TestProcessStopIdempotent(t *testing.T) {
	s := newTestProcess(t, "sleep", "30")

	// Stop on a never-started unit succeeds.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop on never-started unit = %v, want nil", err)
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second Stop = %v, want nil", err)
	}
	if s.IsRunning() {
		t.Error("process still running after Stop")
	}
}

func TestProcessStartCrashCapturesOutput(t *testing.T) {
	s := newTestProcess(t, "sh", "-c", "echo boot-stdout; echo boot-stderr >&2; exit 3")

	err := s.Start(context.Background())
	if !errors.Is(err, ErrEarlyExit) {
		t.Fatalf("err = %v, want ErrEarlyExit", err)
	}

	msg := err.Error()
	if !strings.Contains(msg, "boot-stdout") {
		t.Errorf("error %q missing captured stdout", msg)
	}
	if !strings.Contains(msg, "boot-stderr") {
		t.Errorf("error %q missing captured stderr", msg)
	}

	if s.IsRunning() {
		t.Error("IsRunning() = true after startup crash")
	}

	// The handle was consumed; a retry is not blocked.
	if err := s.Start(context.Background()); !errors.Is(err, ErrEarlyExit) {
		t.Errorf("retry err = %v, want ErrEarlyExit again", err)
	}
}

func TestProcessRestart(t *testing.T) {
	s := newTestProcess(t, "sleep", "30")

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	first, _ := s.PID()

	if err := s.Restart(context.Background()); err != nil {
		t.Fatal(err)
	}

	second, ok := s.PID()
	if !ok {
		t.Fatal("process not running after Restart")
	}
	if second == first {
		t.Errorf("pid unchanged across Restart: %d", first)
	}
}

func TestProcessRestartNeverStarted(t *testing.T) {
	s := newTestProcess(t, "sleep", "30")

	if err := s.Restart(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.IsRunning() {
		t.Error("process not running after Restart on a stopped unit")
	}
}

func TestProcessClose(t *testing.T) {
	s := NewProcessSupervisor(t.TempDir(), []string{"sleep", "30"},
		WithProcessLogger(discardLogger()),
		WithStartupGrace(100*time.Millisecond),
	)

	if err := s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	pid, _ := s.PID()

	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	if s.IsRunning() {
		t.Errorf("process %d still running after Close", pid)
	}

	// Close again is a no-op.
	if err := s.Close(); err != nil {
		t.Fatalf("second Close = %v, want nil", err)
	}
}
