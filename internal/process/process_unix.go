//go:build !windows

// Package process controls the lifetime of external converter processes.
//
// Converters spawn their own children (pandoc runs a LaTeX engine,
// epubcheck runs a JVM), so a timed-out run must take down the whole
// tree, not just the direct child.
package process

import (
	"os/exec"
	"syscall"
)

// Isolate places the command in its own process group before it starts,
// making the whole converter tree addressable as one unit.
func Isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// KillProcessGroup kills a process and all its children by signalling
// the process group. The group may already have exited.
func KillProcessGroup(pid int) {
	_ = syscall.Kill(-pid, syscall.SIGKILL)
}
