package main

import (
	"errors"
	"os"

	bookexport "github.com/alnah/go-bookexport"
	"github.com/alnah/go-bookexport/internal/backup"
	"github.com/alnah/go-bookexport/internal/chapters"
	"github.com/alnah/go-bookexport/internal/config"
	"github.com/alnah/go-bookexport/internal/logging"
	"github.com/alnah/go-bookexport/internal/manuscript"
	"github.com/alnah/go-bookexport/internal/pathrewrite"
	"github.com/alnah/go-bookexport/internal/validate"
)

// Exit codes for the bookexport CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess = 0 // Successful run
	ExitGeneral = 1 // General error, including per-format export failures
	ExitUsage   = 2 // Invalid flags, configuration, or arguments
	ExitIO      = 3 // Missing files, lock contention, backup or restore failure
	ExitTool    = 4 // Required external tool not installed
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// Missing external tools (exit 4)
	if errors.Is(err, bookexport.ErrMissingTool) {
		return ExitTool
	}

	// I/O and run-state errors (exit 3)
	if errors.Is(err, bookexport.ErrLockHeld) ||
		errors.Is(err, bookexport.ErrEmptyManuscript) ||
		errors.Is(err, bookexport.ErrRestoreFailed) ||
		errors.Is(err, backup.ErrBackupFailed) ||
		errors.Is(err, chapters.ErrChapterExists) ||
		errors.Is(err, manuscript.ErrManuscriptNotFound) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) {
		return ExitIO
	}

	// Usage, configuration, and argument errors (exit 2)
	if errors.Is(err, bookexport.ErrInvalidConfig) ||
		errors.Is(err, bookexport.ErrUnknownFormat) ||
		errors.Is(err, bookexport.ErrUnknownBookType) ||
		errors.Is(err, bookexport.ErrNoInputFiles) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, manuscript.ErrUnknownTOCMode) ||
		errors.Is(err, pathrewrite.ErrUnknownMode) ||
		errors.Is(err, pathrewrite.ErrInvalidRoot) ||
		errors.Is(err, validate.ErrUnknownFormat) ||
		errors.Is(err, logging.ErrBadFormat) {
		return ExitUsage
	}

	return ExitGeneral
}
