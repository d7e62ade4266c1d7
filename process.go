package supervisor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/andrew-craig/ghd-manager/internal/proc"
)

// procHandle is the opaque handle for one spawned process. It is owned
// exclusively by its ProcessSupervisor: created by Start, cleared by
// Stop or Close, never constructed elsewhere.
type procHandle struct {
	cmd *exec.Cmd
	pid int

	// stdout and stderr hold the captured streams. They are only read
	// after done is closed, which the copier goroutines inside exec
	// complete before Wait returns.
	stdout bytes.Buffer
	stderr bytes.Buffer

	// done is closed by the waiter goroutine once the process has been
	// reaped. waitErr is written before done closes.
	done    chan struct{}
	waitErr error
}

// exited reports whether the process has been reaped. Tracking the reap
// explicitly (rather than relying only on signal probes) means a later
// reuse of the pid can never be mistaken for the managed process.
func (h *procHandle) exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

// ProcessSupervisor owns the lifecycle of at most one externally
// spawned OS process. It is not safe for concurrent lifecycle calls;
// the caller must serialize Start/Stop/Restart against one instance.
// IsRunning and HealthCheck are read-only and reentrant.
type ProcessSupervisor struct {
	// WorkDir is the working directory the process is launched in
	WorkDir string

	// Command is the launch command: program followed by its arguments
	Command []string

	// StartupGrace is the delay before Start re-probes for an
	// immediate crash
	StartupGrace time.Duration

	// StopTimeout is the graceful-termination ceiling before SIGKILL
	StopTimeout time.Duration

	// StopPoll is the interval between liveness checks during Stop
	StopPoll time.Duration

	// KillSettle is the post-SIGKILL settle delay, also used between
	// Stop and Start in Restart
	KillSettle time.Duration

	log    *slog.Logger
	handle *procHandle
}

// ProcessOption configures a ProcessSupervisor
type ProcessOption func(*ProcessSupervisor)

// WithProcessLogger sets the structured logger
func WithProcessLogger(l *slog.Logger) ProcessOption {
	return func(s *ProcessSupervisor) {
		s.log = l
	}
}

// WithStartupGrace sets the post-spawn grace before the crash reprobe
func WithStartupGrace(d time.Duration) ProcessOption {
	return func(s *ProcessSupervisor) {
		s.StartupGrace = d
	}
}

// WithStopTimeout sets the graceful-termination ceiling
func WithStopTimeout(d time.Duration) ProcessOption {
	return func(s *ProcessSupervisor) {
		s.StopTimeout = d
	}
}

// WithStopPoll sets the liveness poll interval during Stop
func WithStopPoll(d time.Duration) ProcessOption {
	return func(s *ProcessSupervisor) {
		s.StopPoll = d
	}
}

// WithKillSettle sets the settle delay after SIGKILL
func WithKillSettle(d time.Duration) ProcessOption {
	return func(s *ProcessSupervisor) {
		s.KillSettle = d
	}
}

// NewProcessSupervisor creates a supervisor for the given working
// directory and launch command. Nothing is spawned until Start.
func NewProcessSupervisor(workDir string, command []string, opts ...ProcessOption) *ProcessSupervisor {
	s := &ProcessSupervisor{
		WorkDir:      workDir,
		Command:      command,
		StartupGrace: DefaultStartupGrace,
		StopTimeout:  DefaultStopTimeout,
		StopPoll:     DefaultStopPoll,
		KillSettle:   DefaultKillSettle,
		log:          slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// unit names the supervised command in errors and logs.
func (s *ProcessSupervisor) unit() string {
	if len(s.Command) == 0 {
		return "process"
	}
	return s.Command[0]
}

// Start spawns the configured command with captured stdout/stderr and
// records the handle. It fails with ErrAlreadyRunning if a live handle
// exists and with ErrEmptyCommand if no command is configured.
//
// After spawning, Start waits StartupGrace and re-probes the process.
// Many workloads fail at import/initialization time faster than any
// external caller would notice; if the process has already exited, the
// captured streams are drained into the returned error and the handle
// is cleared.
func (s *ProcessSupervisor) Start(ctx context.Context) error {
	if s.IsRunning() {
		return &OpError{Op: OpStart, Unit: s.unit(), Err: ErrAlreadyRunning}
	}

	if len(s.Command) == 0 {
		return &OpError{Op: OpStart, Unit: s.unit(), Err: ErrEmptyCommand}
	}

	s.log.Info("starting process", "command", s.Command, "dir", s.WorkDir)

	cmd := exec.Command(s.Command[0], s.Command[1:]...)
	cmd.Dir = s.WorkDir

	h := &procHandle{cmd: cmd, done: make(chan struct{})}
	cmd.Stdout = &h.stdout
	cmd.Stderr = &h.stderr

	if err := cmd.Start(); err != nil {
		return &OpError{Op: OpStart, Unit: s.unit(), Err: err}
	}

	h.pid = cmd.Process.Pid
	s.handle = h

	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()

	s.log.Info("process started", "pid", h.pid)

	select {
	case <-time.After(s.StartupGrace):
	case <-ctx.Done():
		// The process keeps running; only the crash reprobe is skipped.
		return ctx.Err()
	}

	if h.exited() {
		s.handle = nil
		err := fmt.Errorf("%w (%v): stdout: %q, stderr: %q",
			ErrEarlyExit, h.waitErr, h.stdout.String(), h.stderr.String())
		s.log.Error("process crashed during startup", "pid", h.pid, "err", err)
		return &OpError{Op: OpStart, Unit: s.unit(), Err: err}
	}

	return nil
}

// Stop terminates the managed process: SIGTERM, a poll loop up to
// StopTimeout, then SIGKILL with a short settle and a final reap check.
// It is idempotent and never fails the caller over signal delivery;
// such failures are logged and the handle is always released. The only
// error it can return is ctx cancellation, which aborts the escalation
// early and leaves the handle in place.
func (s *ProcessSupervisor) Stop(ctx context.Context) error {
	h := s.handle
	if h == nil {
		s.log.Info("process not running, nothing to stop")
		return nil
	}

	if h.exited() {
		s.handle = nil
		return nil
	}

	s.log.Info("stopping process", "pid", h.pid)

	if err := proc.Terminate(h.pid); err != nil {
		s.log.Warn("sending SIGTERM failed", "pid", h.pid, "err", err)
	}

	deadline := time.Now().Add(s.StopTimeout)
	for time.Now().Before(deadline) {
		if h.exited() {
			s.log.Info("process stopped gracefully", "pid", h.pid)
			s.handle = nil
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-h.done:
		case <-time.After(s.StopPoll):
		}
	}

	s.log.Warn("process did not stop gracefully, sending SIGKILL", "pid", h.pid)

	if err := proc.Kill(h.pid); err != nil {
		s.log.Error("sending SIGKILL failed", "pid", h.pid, "err", err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
	case <-time.After(s.KillSettle):
	}

	if h.exited() {
		s.log.Info("process force stopped", "pid", h.pid)
	} else {
		s.log.Warn("process may still be running after SIGKILL", "pid", h.pid)
	}

	s.handle = nil
	return nil
}

// Restart stops the process if running, waits KillSettle, and starts it
// again. A Start failure is propagated to the caller unchanged.
func (s *ProcessSupervisor) Restart(ctx context.Context) error {
	s.log.Info("restarting process")

	if s.IsRunning() {
		if err := s.Stop(ctx); err != nil {
			return err
		}
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.KillSettle):
	}

	return s.Start(ctx)
}

// IsRunning is a non-mutating liveness probe. It consults the recorded
// exit state first and only then probes the tracked pid with a null
// signal; it does not reap and does not mutate the handle.
func (s *ProcessSupervisor) IsRunning() bool {
	h := s.handle
	if h == nil || h.exited() {
		return false
	}
	return proc.Alive(h.pid)
}

// HealthCheck reports whether the managed process is healthy. Today
// that means live and not an unreaped zombie; it is a deliberately
// separate operation from IsRunning so richer checks (HTTP endpoints,
// resource thresholds) can be added without changing the contract.
func (s *ProcessSupervisor) HealthCheck(ctx context.Context) (bool, error) {
	if !s.IsRunning() {
		s.log.Warn("health check failed: process is not running")
		return false, nil
	}

	h := s.handle
	p, err := process.NewProcessWithContext(ctx, int32(h.pid))
	if err != nil {
		return false, nil
	}

	statuses, err := p.StatusWithContext(ctx)
	if err != nil {
		// Status introspection is unavailable; liveness already passed.
		return true, nil
	}
	for _, st := range statuses {
		if st == process.Zombie {
			s.log.Warn("health check failed: process is a zombie", "pid", h.pid)
			return false, nil
		}
	}

	s.log.Debug("health check passed", "pid", h.pid)
	return true, nil
}

// PID returns the pid of the managed process and whether it is live.
func (s *ProcessSupervisor) PID() (int, bool) {
	if !s.IsRunning() {
		return 0, false
	}
	return s.handle.pid, true
}

// Close is the explicit teardown. If the managed process is still live
// it is stopped best-effort so it is not leaked; callers are expected
// to invoke Close when discarding the supervisor.
func (s *ProcessSupervisor) Close() error {
	if s.IsRunning() {
		s.log.Warn("supervisor closed with live process, stopping it", "pid", s.handle.pid)
		return s.Stop(context.Background())
	}
	return nil
}
