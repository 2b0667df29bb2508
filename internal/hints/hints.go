// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

// installHints maps converter and validator binaries to installation
// guidance shown by doctor and by missing-tool errors.
var installHints = map[string]string{
	"pandoc":        "install pandoc (https://pandoc.org/installing.html)",
	"lualatex":      "install TeX Live with the LuaLaTeX engine (texlive-luatex on Debian/Ubuntu, mactex on macOS)",
	"ebook-convert": "install Calibre (https://calibre-ebook.com/download); ebook-convert ships with it",
	"epubcheck":     "install epubcheck (https://www.w3.org/publishing/epubcheck/) for EPUB validation",
	"pdfinfo":       "install poppler-utils for PDF validation",
}

// ForTool returns the install hint for a missing binary. Binaries with
// a custom [tools] override get no hint; the user already chose a path.
func ForTool(name string) string {
	return format(installHints[name])
}

// InstallText returns the bare install guidance for a binary, without
// the hint prefix, for tabular output.
func InstallText(name string) string {
	return installHints[name]
}

const timeoutHint = "for large books, raise timeout_seconds in book.toml or use --timeout"

// ForTimeout returns a hint about raising the export timeout for large books.
func ForTimeout() string {
	return format(timeoutHint)
}

// TimeoutText returns the bare timeout guidance, for log attributes.
func TimeoutText() string {
	return timeoutHint
}

// ForConfigNotFound returns hints for a missing book.toml.
func ForConfigNotFound() string {
	return format("use --config /path/to/book.toml or run `bookexport init` to start a project")
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

const restoreHint = "manuscript may still contain absolute image paths; run `bookexport images relative` to repair"

// ForRestoreFailure returns hints for a failed link restoration, which
// leaves absolute image paths in the manuscript.
func ForRestoreFailure() string {
	return format(restoreHint)
}

// RestoreText returns the bare restore guidance, for log attributes.
func RestoreText() string {
	return restoreHint
}

// ForLockHeld returns hints for a contended export lock.
func ForLockHeld() string {
	return format("another export is running against this output directory; wait for it or remove a stale .lock file")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}
