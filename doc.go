// Package bookexport exports a Markdown book manuscript to
// distributable formats: pdf, epub, mobi, docx, html, and merged
// markdown.
//
// # Quick Start
//
// Create a service, build a run configuration, and export:
//
//	svc := bookexport.New()
//	cfg := bookexport.FromProject(projectConfig)
//	cfg.Formats = []bookexport.Format{bookexport.FormatPDF, bookexport.FormatEPUB}
//
//	report, err := svc.Export(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range report.Formats {
//	    fmt.Println(f.Format, f.Outcome)
//	}
//
// The report lists one outcome per requested format; a failed format
// never aborts the run, only fatal pipeline conditions do (a held lock,
// a failed backup, a failed link restoration).
//
// # Export Pipeline
//
// Export executes these stages in order:
//
//  1. Acquire the per-output-directory export lock
//  2. Rewrite manuscript image links to absolute paths
//  3. Plan the manuscript (front matter, numbered chapters, back matter)
//  4. Resolve metadata placeholders and symbolic dates to a temp file
//  5. Snapshot prior output to a timestamped backup, then clear it
//  6. Convert once per requested format, sequentially
//  7. Restore relative image links (always, even on failure)
//  8. Write the JSON run report next to the artifacts
//
// Conversion shells out to pandoc and Calibre's ebook-convert through an
// injectable CommandRunner; the html format is converted in-process with
// goldmark and needs no external tool. MOBI is always derived from an
// EPUB produced in the same run: requesting mobi implies producing epub
// first. A failed EPUB fails mobi without attempting the conversion; a
// skipped EPUB skips it.
//
// # Configuration
//
// Use functional options to customize the service:
//
//	svc := bookexport.New(
//	    bookexport.WithTimeout(20 * time.Minute),
//	    bookexport.WithLogger(logger),
//	)
//
// Per-run settings travel in the Config value passed to Export; the
// service itself holds no per-project state.
package bookexport
