package supervisor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/docker/docker/api/types/container"
)

// ContainerSupervisor manages a fixed list of named containers through
// the runtime control API, plus pull-and-recreate update workflows
// through the compose batch tool. It holds no state of its own: every
// status is re-derived from the runtime on each query.
//
// Batch policy is asymmetric on purpose: read batches (AllStatus) are
// best-effort and skip failing names, write batches (StartAll, StopAll,
// RestartAll) are fail-fast and abort on the first failing name.
type ContainerSupervisor struct {
	// ComposeFile is the path to the compose descriptor
	ComposeFile string

	// ComposeDir is the directory containing the descriptor; the batch
	// tool runs with this as its working directory
	ComposeDir string

	// Names is the configured list of managed container names
	Names []string

	// StopGrace is the graceful timeout, in seconds, passed to the
	// runtime for stop/restart
	StopGrace int

	// WatchDebounce coalesces rapid compose-file change events
	WatchDebounce time.Duration

	runtime        ContainerAPI
	compose        ComposeRunner
	composeTimeout time.Duration
	log            *slog.Logger
}

// ContainerOption configures a ContainerSupervisor
type ContainerOption func(*ContainerSupervisor)

// WithContainerLogger sets the structured logger
func WithContainerLogger(l *slog.Logger) ContainerOption {
	return func(s *ContainerSupervisor) {
		s.log = l
	}
}

// WithRuntime substitutes the container runtime API client
func WithRuntime(api ContainerAPI) ContainerOption {
	return func(s *ContainerSupervisor) {
		s.runtime = api
	}
}

// WithComposeRunner substitutes the compose batch-tool runner
func WithComposeRunner(r ComposeRunner) ContainerOption {
	return func(s *ContainerSupervisor) {
		s.compose = r
	}
}

// WithStopGrace sets the runtime-side graceful stop timeout in seconds
func WithStopGrace(seconds int) ContainerOption {
	return func(s *ContainerSupervisor) {
		s.StopGrace = seconds
	}
}

// WithComposeTimeout bounds each compose-tool invocation
func WithComposeTimeout(d time.Duration) ContainerOption {
	return func(s *ContainerSupervisor) {
		s.composeTimeout = d
	}
}

// WithWatchDebounce sets the compose-file watch debounce duration
func WithWatchDebounce(d time.Duration) ContainerOption {
	return func(s *ContainerSupervisor) {
		s.WatchDebounce = d
	}
}

// NewContainerSupervisor creates a supervisor for the named containers
// defined by the given compose descriptor. Unless a runtime is injected
// it dials the local container runtime and verifies the connection,
// which is the only hard failure at construction time.
func NewContainerSupervisor(composeFile string, names []string, opts ...ContainerOption) (*ContainerSupervisor, error) {
	absFile, err := filepath.Abs(composeFile)
	if err != nil {
		return nil, &OpError{Op: OpValidate, Unit: composeFile, Err: err}
	}

	s := &ContainerSupervisor{
		ComposeFile:    absFile,
		ComposeDir:     filepath.Dir(absFile),
		Names:          names,
		StopGrace:      DefaultContainerStopGrace,
		WatchDebounce:  DefaultWatchDebounce,
		composeTimeout: DefaultComposeTimeout,
		log:            slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.runtime == nil {
		rt, err := dialRuntime(context.Background())
		if err != nil {
			return nil, &OpError{Op: OpValidate, Unit: absFile, Err: err}
		}
		s.runtime = rt
	}

	if s.compose == nil {
		s.compose = newComposeExec(s.ComposeFile, s.ComposeDir, s.composeTimeout, s.log)
	}

	return s, nil
}

// Validate confirms the compose descriptor exists and checks which
// configured names the runtime currently knows. A configured container
// absent from the runtime is only a warning; it may simply not have
// been created yet, and will exist after the first compose up.
func (s *ContainerSupervisor) Validate(ctx context.Context) error {
	s.log.Info("validating container configuration")

	if _, err := os.Stat(s.ComposeFile); os.IsNotExist(err) {
		return &OpError{Op: OpValidate, Unit: s.ComposeFile, Err: ErrComposeFileMissing}
	}

	listed, err := s.runtime.ContainerList(ctx, container.ListOptions{All: true})
	if err != nil {
		return &OpError{Op: OpValidate, Unit: s.ComposeFile, Err: err}
	}

	present := make(map[string]bool, len(listed))
	for _, c := range listed {
		for _, name := range c.Names {
			present[normalizeName(name)] = true
		}
	}

	for _, name := range s.Names {
		if !present[name] {
			s.log.Warn("configured container not found in runtime, it may not be created yet", "container", name)
		}
	}

	s.log.Info("container configuration validated", "containers", len(s.Names))
	return nil
}

// Status inspects one container and returns its normalized name,
// mapped status, and image reference. An inspect failure or a response
// without state is a hard error.
func (s *ContainerSupervisor) Status(ctx context.Context, name string) (ContainerInfo, error) {
	inspect, err := s.runtime.ContainerInspect(ctx, name)
	if err != nil {
		return ContainerInfo{}, &OpError{Op: OpStatus, Unit: name, Err: err}
	}

	// State is promoted through an embedded pointer, so the base must
	// be checked before the state.
	if inspect.ContainerJSONBase == nil || inspect.State == nil {
		return ContainerInfo{}, &OpError{Op: OpStatus, Unit: name, Err: ErrNoContainerState}
	}

	info := ContainerInfo{
		Name:   normalizeName(inspect.Name),
		Status: ContainerStatusFromString(inspect.State.Status),
	}
	if inspect.Config != nil {
		info.Image = inspect.Config.Image
	}

	s.log.Debug("container status", "container", info.Name, "status", info.Status.String())
	return info, nil
}

// AllStatus returns the status of every configured container that
// resolved. It is best-effort: a per-name failure is logged and that
// name is skipped, and the call itself always succeeds.
func (s *ContainerSupervisor) AllStatus(ctx context.Context) []ContainerInfo {
	return s.eachBestEffort(ctx, func(ctx context.Context, name string) (ContainerInfo, error) {
		return s.Status(ctx, name)
	})
}

// StartContainer starts one container through the runtime API.
func (s *ContainerSupervisor) StartContainer(ctx context.Context, name string) error {
	s.log.Info("starting container", "container", name)

	if err := s.runtime.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return &OpError{Op: OpStart, Unit: name, Err: err}
	}

	s.log.Info("container started", "container", name)
	return nil
}

// StopContainer stops one container, passing the graceful timeout to
// the runtime; the runtime performs the TERM-to-KILL escalation.
func (s *ContainerSupervisor) StopContainer(ctx context.Context, name string) error {
	s.log.Info("stopping container", "container", name)

	grace := s.StopGrace
	if err := s.runtime.ContainerStop(ctx, name, container.StopOptions{Timeout: &grace}); err != nil {
		return &OpError{Op: OpStop, Unit: name, Err: err}
	}

	s.log.Info("container stopped", "container", name)
	return nil
}

// RestartContainer restarts one container with the graceful timeout.
func (s *ContainerSupervisor) RestartContainer(ctx context.Context, name string) error {
	s.log.Info("restarting container", "container", name)

	grace := s.StopGrace
	if err := s.runtime.ContainerRestart(ctx, name, container.StopOptions{Timeout: &grace}); err != nil {
		return &OpError{Op: OpRestart, Unit: name, Err: err}
	}

	s.log.Info("container restarted", "container", name)
	return nil
}

// StartAllContainers starts every configured container, fail-fast.
func (s *ContainerSupervisor) StartAllContainers(ctx context.Context) error {
	s.log.Info("starting all managed containers")
	return s.eachFailFast(ctx, s.StartContainer)
}

// StopAllContainers stops every configured container, fail-fast.
func (s *ContainerSupervisor) StopAllContainers(ctx context.Context) error {
	s.log.Info("stopping all managed containers")
	return s.eachFailFast(ctx, s.StopContainer)
}

// RestartAllContainers restarts every configured container, fail-fast.
func (s *ContainerSupervisor) RestartAllContainers(ctx context.Context) error {
	s.log.Info("restarting all managed containers")
	return s.eachFailFast(ctx, s.RestartContainer)
}

// eachFailFast applies fn to the configured names sequentially and
// aborts on the first failure; names after it are never attempted.
// This is the write-batch policy.
func (s *ContainerSupervisor) eachFailFast(ctx context.Context, fn func(context.Context, string) error) error {
	for _, name := range s.Names {
		if err := fn(ctx, name); err != nil {
			s.log.Error("batch aborted", "container", name, "err", err)
			return err
		}
	}
	return nil
}

// eachBestEffort applies fn to the configured names sequentially,
// logging and skipping failures, and returns whatever resolved. This
// is the read-batch policy.
func (s *ContainerSupervisor) eachBestEffort(ctx context.Context, fn func(context.Context, string) (ContainerInfo, error)) []ContainerInfo {
	infos := make([]ContainerInfo, 0, len(s.Names))
	for _, name := range s.Names {
		info, err := fn(ctx, name)
		if err != nil {
			s.log.Warn("skipping container", "container", name, "err", err)
			continue
		}
		infos = append(infos, info)
	}
	return infos
}

// Update pulls the latest image for one service and recreates it:
// compose pull, then compose up -d, scoped to the service. The
// preceding stop is best-effort; a failure there is logged and
// tolerated since the pull/up sequence may still succeed against a
// running container. Batch-tool failures are soft: they come back in
// the UpdateOutcome, and a failing pull prevents the up step from
// running at all.
func (s *ContainerSupervisor) Update(ctx context.Context, name string) (UpdateOutcome, error) {
	s.log.Info("updating container", "container", name)

	if err := s.StopContainer(ctx, name); err != nil {
		s.log.Warn("stopping container before pull failed", "container", name, "err", err)
	}

	pull, err := s.compose.Run(ctx, "pull", name)
	if err != nil {
		return UpdateOutcome{}, &OpError{Op: OpUpdate, Unit: name, Err: err}
	}
	if !pull.ExitOK {
		s.log.Error("compose pull failed", "container", name, "stderr", pull.Stderr)
		return UpdateOutcome{Success: false, Output: pull.Stdout, Err: pull.Stderr}, nil
	}

	up, err := s.compose.Run(ctx, "up", "-d", name)
	if err != nil {
		return UpdateOutcome{}, &OpError{Op: OpUpdate, Unit: name, Err: err}
	}

	combined := pull.Stdout + "\n" + up.Stdout

	if !up.ExitOK {
		s.log.Error("compose up failed", "container", name, "stderr", up.Stderr)
		return UpdateOutcome{Success: false, Output: combined, Err: up.Stderr}, nil
	}

	s.log.Info("container updated", "container", name)
	return UpdateOutcome{Success: true, Output: combined}, nil
}

// UpdateAll refreshes the whole stack: compose down, compose pull,
// compose up -d. Each step short-circuits the remainder on failure,
// and the outcome's Output accumulates the stdout of every step that
// was attempted so a caller can see how far the rollout progressed.
func (s *ContainerSupervisor) UpdateAll(ctx context.Context) (UpdateOutcome, error) {
	s.log.Info("updating all containers")

	var transcript string

	steps := [][]string{
		{"down"},
		{"pull"},
		{"up", "-d"},
	}

	for i, args := range steps {
		res, err := s.compose.Run(ctx, args...)
		if err != nil {
			return UpdateOutcome{}, &OpError{Op: OpUpdate, Unit: s.ComposeFile, Err: err}
		}

		if i == 0 {
			transcript = res.Stdout
		} else {
			transcript += "\n" + res.Stdout
		}

		if !res.ExitOK {
			s.log.Error("compose step failed", "step", args, "stderr", res.Stderr)
			return UpdateOutcome{Success: false, Output: transcript, Err: res.Stderr}, nil
		}

		s.log.Debug("compose step completed", "step", args)
	}

	s.log.Info("all containers updated")
	return UpdateOutcome{Success: true, Output: transcript}, nil
}
