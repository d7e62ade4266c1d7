//go:build unix

package supervisor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// installFakeDocker places a stub `docker` executable with the given
// script body at the front of PATH for the duration of the test.
func installFakeDocker(t *testing.T, script string) {
	t.Helper()

	binDir := t.TempDir()
	path := filepath.Join(binDir, "docker")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func newTestComposeExec(t *testing.T, timeout time.Duration) *composeExec {
	t.Helper()

	dir := t.TempDir()
	file := filepath.Join(dir, "docker-compose.yml")
	if err := os.WriteFile(file, []byte("services: {}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return newComposeExec(file, dir, timeout, discardLogger())
}

func TestComposeExecCapturesOutput(t *testing.T) {
	installFakeDocker(t, `echo "step ran: $@"; echo "noise" >&2; exit 0`)

	c := newTestComposeExec(t, time.Minute)

	res, err := c.Run(context.Background(), "pull", "web")
	if err != nil {
		t.Fatal(err)
	}

	if !res.ExitOK {
		t.Errorf("ExitOK = false, want true (stderr: %q)", res.Stderr)
	}
	if !strings.Contains(res.Stdout, "pull web") {
		t.Errorf("Stdout = %q, want the verb and service forwarded to the tool", res.Stdout)
	}
	if !strings.Contains(res.Stdout, "compose -f") {
		t.Errorf("Stdout = %q, want the descriptor argument forwarded to the tool", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "noise") {
		t.Errorf("Stderr = %q, want captured stderr", res.Stderr)
	}
}

func TestComposeExecNonZeroExitIsSoft(t *testing.T) {
	installFakeDocker(t, `echo "partial"; echo "pull failed" >&2; exit 18`)

	c := newTestComposeExec(t, time.Minute)

	res, err := c.Run(context.Background(), "pull")
	if err != nil {
		t.Fatalf("non-zero exit must not be a hard error, got %v", err)
	}

	if res.ExitOK {
		t.Error("ExitOK = true, want false")
	}
	if !strings.Contains(res.Stdout, "partial") {
		t.Errorf("Stdout = %q, want output captured up to the failure", res.Stdout)
	}
	if !strings.Contains(res.Stderr, "pull failed") {
		t.Errorf("Stderr = %q, want the failing step's stderr", res.Stderr)
	}
}

func TestComposeExecTimeoutIsSoft(t *testing.T) {
	installFakeDocker(t, `sleep 5`)

	c := newTestComposeExec(t, 200*time.Millisecond)

	start := time.Now()
	res, err := c.Run(context.Background(), "pull")
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("timeout must not be a hard error, got %v", err)
	}
	if !res.TimedOut {
		t.Error("TimedOut = false, want true")
	}
	if res.ExitOK {
		t.Error("ExitOK = true, want false")
	}
	if !strings.Contains(res.Stderr, "timed out") {
		t.Errorf("Stderr = %q, want a timeout note", res.Stderr)
	}
	if elapsed > 2*time.Second {
		t.Errorf("Run blocked for %v, want the bounded timeout to apply", elapsed)
	}
}

func TestComposeExecSpawnFailureIsHard(t *testing.T) {
	// An empty PATH means the tool cannot be invoked at all.
	t.Setenv("PATH", t.TempDir())

	c := newTestComposeExec(t, time.Minute)

	if _, err := c.Run(context.Background(), "pull"); err == nil {
		t.Fatal("expected hard error when the tool binary is missing")
	}
}

func TestComposeExecRunsInDescriptorDir(t *testing.T) {
	installFakeDocker(t, `pwd`)

	c := newTestComposeExec(t, time.Minute)

	res, err := c.Run(context.Background(), "down")
	if err != nil {
		t.Fatal(err)
	}

	got := strings.TrimSpace(res.Stdout)
	want, err := filepath.EvalSymlinks(c.dir)
	if err != nil {
		t.Fatal(err)
	}
	gotResolved, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatal(err)
	}
	if gotResolved != want {
		t.Errorf("tool ran in %q, want descriptor dir %q", gotResolved, want)
	}
}
