// Package supervisor manages the lifecycle of a locally deployed
// workload: either a single OS process or a named set of containerized
// services defined by a compose file.
//
// The two engines are independent and share only status/result types:
//
//	ps := supervisor.NewProcessSupervisor("/srv/app", []string{"python", "main.py"})
//	defer ps.Close()
//
//	if err := ps.Start(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Liveness is always re-derived, never cached
//	fmt.Println(ps.IsRunning())
//
// ProcessSupervisor owns at most one live process handle. Start rejects
// a second launch while the handle is live, Stop escalates from SIGTERM
// to SIGKILL after a bounded grace window and always releases the
// handle, and Close is the explicit teardown callers must invoke so a
// still-running workload is not leaked.
//
// ContainerSupervisor delegates state to the container runtime and only
// observes it:
//
//	cs, err := supervisor.NewContainerSupervisor(
//	    "/srv/stack/docker-compose.yml",
//	    []string{"web", "worker", "redis"},
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	infos := cs.AllStatus(ctx)            // best-effort, never fails
//	err = cs.RestartAllContainers(ctx)    // fail-fast, aborts on first error
//	outcome, err := cs.UpdateAll(ctx)     // compose down / pull / up -d
//
// Read batches are best-effort (a failing name is skipped), write
// batches are fail-fast (the first failing name aborts the batch). The
// asymmetry is deliberate and implemented as two separate iteration
// paths.
//
// External batch-tool failures during Update/UpdateAll are reported as
// data: UpdateOutcome carries a success flag and the captured
// transcripts rather than surfacing a non-zero exit as an error.
//
// # Concurrency
//
// Both supervisors assume a single logical owner per managed unit.
// Lifecycle calls against the same unit must be serialized by the
// caller; liveness and status probes are read-only and may be invoked
// concurrently.
package supervisor
