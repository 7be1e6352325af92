package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
)

// execve is swapped in tests; replacing the test binary would end the run.
var execve = syscall.Exec

// Exec replaces the current process with the given command. Only the
// executable goes through PATH lookup; argv is handed over exactly as
// supplied, so the command keeps our PID, descriptors and signal
// dispositions. On success this never returns.
func Exec(argv []string, env []string) error {
	if len(argv) == 0 {
		return fmt.Errorf("no command to exec")
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", argv[0], err)
	}

	if err := execve(path, argv, env); err != nil {
		return fmt.Errorf("failed to exec %s: %w", path, err)
	}
	return nil
}

// Run starts the command as a child process instead of replacing ourselves
// and reports its exit code. SIGINT and SIGTERM are forwarded so the child
// can shut down cleanly; a child killed by a signal maps to 128+signal the
// way a shell reports it.
func Run(ctx context.Context, argv []string, env []string) (int, error) {
	if len(argv) == 0 {
		return 0, fmt.Errorf("no command to run")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = env
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	for {
		select {
		case sig := <-signals:
			_ = cmd.Process.Signal(sig)
		case err := <-done:
			if err == nil {
				return 0, nil
			}
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
					return 128 + int(status.Signal()), nil
				}
				return exitErr.ExitCode(), nil
			}
			return 0, fmt.Errorf("failed to wait for %s: %w", argv[0], err)
		}
	}
}
