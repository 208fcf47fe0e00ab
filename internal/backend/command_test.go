//go:build unix

package backend

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"
)

func requireBinary(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func TestExecRunnerStdin(t *testing.T) {
	requireBinary(t, "cat")

	out, err := newExecRunner(time.Second).Run(context.Background(), "hello", "cat")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(out) != "hello" {
		t.Errorf("Expected %q, got %q", "hello", out)
	}
}

func TestExecRunnerCapturesStderr(t *testing.T) {
	requireBinary(t, "sh")

	_, err := newExecRunner(time.Second).Run(context.Background(), "", "sh", "-c", "echo no voice >&2; exit 3")

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("Expected *CommandError, got %v", err)
	}
	if cmdErr.Stderr != "no voice" {
		t.Errorf("Expected stderr %q, got %q", "no voice", cmdErr.Stderr)
	}
	if !strings.Contains(err.Error(), "sh failed") {
		t.Errorf("Unexpected message %q", err.Error())
	}
}

func TestExecRunnerTimeoutKillsGroup(t *testing.T) {
	requireBinary(t, "sh")

	start := time.Now()
	_, err := newExecRunner(100*time.Millisecond).Run(context.Background(), "", "sh", "-c", "sleep 5 & sleep 5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Timeout took too long: %v", elapsed)
	}
}
