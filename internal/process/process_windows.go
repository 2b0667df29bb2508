//go:build windows

// Package process controls the lifetime of external converter processes.
//
// Converters spawn their own children (pandoc runs a LaTeX engine,
// epubcheck runs a JVM), so a timed-out run must take down the whole
// tree, not just the direct child.
package process

import (
	"os/exec"
	"strconv"
)

// Isolate is a no-op on Windows; taskkill /T addresses the tree by PID.
func Isolate(_ *exec.Cmd) {}

// KillProcessGroup kills a process and all its children using taskkill.
// /F forces termination, /T includes the child tree.
func KillProcessGroup(pid int) {
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}
