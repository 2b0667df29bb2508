package main

import (
	"time"

	flag "github.com/spf13/pflag"

	bookexport "github.com/alnah/go-bookexport"
)

// exportFlags holds the per-run overrides for the export command.
type exportFlags struct {
	formats    string
	bookType   string
	outputDir  string
	language   string
	skipImages bool
	keepMerged bool
	epub2      bool
	validate   bool
	timeout    time.Duration
}

// addExportFlags registers the export overrides on a FlagSet.
func addExportFlags(fs *flag.FlagSet, f *exportFlags) {
	fs.StringVar(&f.formats, "formats", "", "comma-separated formats to produce (default: the configured list)")
	fs.StringVar(&f.bookType, "book-type", "", "book type for the artifact name: ebook, paperback, hardcover or audiobook")
	fs.StringVarP(&f.outputDir, "output", "o", "", "output directory (default: the configured one)")
	fs.StringVar(&f.language, "language", "", "language code passed to the converters (default: from metadata)")
	fs.BoolVar(&f.skipImages, "skip-images", false, "leave image links untouched instead of making them absolute")
	fs.BoolVar(&f.keepMerged, "keep-merged", false, "keep the merged manuscript next to the artifacts")
	fs.BoolVar(&f.epub2, "epub2", false, "produce EPUB 2 instead of EPUB 3")
	fs.BoolVar(&f.validate, "validate", false, "validate fresh artifacts with epubcheck and pdfinfo")
	fs.DurationVar(&f.timeout, "timeout", 0, "per-format conversion timeout, e.g. 20m (default: timeout_seconds from book.toml)")
}

// apply overlays the set flags onto a run configuration. String
// overrides apply when non-empty; the booleans and the timeout apply
// only when their flag was explicitly set, so book.toml keeps the say
// for flags left at their default.
func (f *exportFlags) apply(fs *flag.FlagSet, cfg *bookexport.Config) error {
	if f.formats != "" {
		formats, err := bookexport.ParseFormats(f.formats)
		if err != nil {
			return err
		}
		cfg.Formats = formats
	}
	if f.bookType != "" {
		bt, err := bookexport.ParseBookType(f.bookType)
		if err != nil {
			return err
		}
		cfg.BookType = bt
	}
	if f.outputDir != "" {
		cfg.OutputDir = f.outputDir
	}
	if f.language != "" {
		cfg.Language = f.language
	}
	if fs.Changed("skip-images") {
		cfg.SkipImages = f.skipImages
	}
	if fs.Changed("keep-merged") {
		cfg.KeepMerged = f.keepMerged
	}
	if fs.Changed("epub2") {
		cfg.EPUB2 = f.epub2
	}
	if fs.Changed("validate") {
		cfg.ValidateOutput = f.validate
	}
	if fs.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	return nil
}
