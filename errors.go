package bookexport

import "errors"

// Sentinel errors for library operations.
var (
	ErrUnknownFormat   = errors.New("unknown export format")
	ErrUnknownBookType = errors.New("unknown book type")
	ErrInvalidConfig   = errors.New("invalid export configuration")

	// Pipeline-fatal conditions. Per-format conversion failures are
	// reported in the run report instead.
	ErrLockHeld        = errors.New("export lock is held by another run")
	ErrEmptyManuscript = errors.New("manuscript contains no documents")
	ErrRestoreFailed   = errors.New("restoring relative image links failed")

	// Conversion errors carried in per-format outcomes.
	ErrConversionFailed = errors.New("conversion failed")
	ErrMissingTool      = errors.New("required tool not found")

	// Batch conversion errors.
	ErrNoInputFiles = errors.New("no Markdown files found")
)
