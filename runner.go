package bookexport

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/alnah/go-bookexport/internal/process"
)

// CommandRunner abstracts external command execution to enable testing
// without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// Compile-time interface check
var _ CommandRunner = (*ExecRunner)(nil)

// waitDelay bounds the wait for inherited pipes after the process
// exits. LaTeX engines spawned by pandoc can hold stdout open past
// pandoc's own exit.
const waitDelay = 5 * time.Second

// ExecRunner implements CommandRunner using os/exec. Each command runs
// in its own process group so cancellation kills the converter's
// children (LaTeX engines, JVMs) along with the converter itself.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	process.Isolate(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillProcessGroup(cmd.Process.Pid)
		}
		return nil
	}

	err := cmd.Run()
	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return stdout.String(), stderr.String(), err
}
