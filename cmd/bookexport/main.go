// Command bookexport turns a Markdown book project into distributable
// formats through pandoc and Calibre.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"go.uber.org/automaxprocs/maxprocs"
)

// Build info set via ldflags at release time.
// Example: go build -ldflags "-X main.version=1.2.0 -X main.commit=abc1234 -X main.date=2026-08-01"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// buildVersion returns the full version string including commit and date.
func buildVersion() string {
	if commit == "none" && date == "unknown" {
		return version
	}
	short := commit
	if len(short) > 7 {
		short = short[:7]
	}
	return fmt.Sprintf("%s (%s, %s)", version, short, date)
}

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is
	// invalid, in which case Go runtime defaults apply and the program
	// continues safely.
	_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := fang.Execute(ctx, newRootCommand(DefaultEnv()), fang.WithVersion(buildVersion()))
	os.Exit(exitCodeFor(err))
}
