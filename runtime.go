package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
)

// ContainerAPI is the subset of the container runtime's control API the
// supervisor needs: inspect, start, stop, restart, list, ping. The
// production implementation is the Docker SDK client; tests substitute
// a recording fake via WithRuntime.
type ContainerAPI interface {
	ContainerInspect(ctx context.Context, name string) (types.ContainerJSON, error)
	ContainerStart(ctx context.Context, name string, opts container.StartOptions) error
	ContainerStop(ctx context.Context, name string, opts container.StopOptions) error
	ContainerRestart(ctx context.Context, name string, opts container.StopOptions) error
	ContainerList(ctx context.Context, opts container.ListOptions) ([]types.Container, error)
	Ping(ctx context.Context) (types.Ping, error)
}

// dialRuntime connects to the local container runtime and verifies the
// connection with a ping. The ping is retried with exponential backoff
// so a daemon that is still coming up does not fail the constructor.
func dialRuntime(ctx context.Context) (ContainerAPI, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("connecting to container runtime: %w", err)
	}

	ping := func() error {
		_, err := cli.Ping(ctx)
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(100*time.Millisecond)), 5), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		_ = cli.Close()
		return nil, fmt.Errorf("pinging container runtime: %w", err)
	}

	return cli, nil
}
