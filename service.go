package bookexport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/alnah/go-bookexport/internal/backup"
	"github.com/alnah/go-bookexport/internal/fileutil"
	"github.com/alnah/go-bookexport/internal/hints"
	"github.com/alnah/go-bookexport/internal/manuscript"
	"github.com/alnah/go-bookexport/internal/metadata"
	"github.com/alnah/go-bookexport/internal/pathrewrite"
)

// Service runs export pipelines. Create with New; a Service is safe
// for sequential reuse across runs.
type Service struct {
	cfg    serviceConfig
	runner CommandRunner
	doc    DocumentConverter
	ebook  EbookConverter
	html   DocumentConverter
}

// New creates a Service wired to the real pandoc and Calibre CLIs.
// Use options to set the timeout and logger, or to inject test
// doubles.
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{
			timeout:  defaultTimeout,
			logger:   slog.Default(),
			now:      time.Now,
			lookPath: exec.LookPath,
		},
		runner: &ExecRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Export runs the full pipeline for one configuration: lock the output
// directory, make manuscript image links absolute, plan the merge,
// back up and clear prior output, resolve metadata, convert every
// requested format, and restore relative links. Per-format failures
// are reported in the RunReport, not as an error; the error covers
// pipeline-fatal conditions only. A non-nil report may accompany a
// restore error.
func (s *Service) Export(ctx context.Context, cfg Config) (report *RunReport, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	log := s.cfg.logger.With("component", "export")
	started := s.cfg.now()
	report = &RunReport{
		RunID:     uuid.NewString(),
		Name:      cfg.Name,
		BookType:  cfg.BookType,
		StartedAt: started,
	}

	// One export per output directory at a time. The lock file is a
	// sibling of the output directory, which gets cleared below.
	lockPath := cfg.OutputDir + ".lock"
	lock := flock.New(lockPath)
	held, lockErr := lock.TryLock()
	if lockErr != nil {
		return nil, fmt.Errorf("acquiring export lock: %w", lockErr)
	}
	if !held {
		return nil, fmt.Errorf("%w: %s", ErrLockHeld, lockPath)
	}
	defer func() {
		if uerr := lock.Unlock(); uerr != nil {
			log.Warn("failed to release export lock", "lock", lockPath, "error", uerr)
		}
	}()

	log.Info("export started",
		"run_id", report.RunID, "name", cfg.Name, "book_type", string(cfg.BookType),
		"formats", formatNames(cfg.Formats))

	// Image links go absolute for the converters and back to relative
	// when the run ends, even after a failure partway through.
	if !cfg.SkipImages {
		rewriter, rerr := pathrewrite.New(cfg.ProjectRoot, s.cfg.logger)
		if rerr != nil {
			return nil, rerr
		}
		dirs := []string{cfg.ManuscriptDir}
		defer func() {
			if _, rerr := rewriter.RewriteTree(dirs, pathrewrite.ModeRelative); rerr != nil {
				log.Error("restoring relative image links failed",
					"error", rerr, "hint", hints.RestoreText())
				err = errors.Join(err, fmt.Errorf("%w: %v", ErrRestoreFailed, rerr))
			}
		}()
		stats, rerr := rewriter.RewriteTree(dirs, pathrewrite.ModeAbsolute)
		if rerr != nil {
			return nil, fmt.Errorf("rewriting image links: %w", rerr)
		}
		log.Debug("image links made absolute",
			"files", stats.FilesChanged, "refs", stats.RefsRewritten)
	}

	man, perr := manuscript.Plan(cfg.ManuscriptDir, s.cfg.logger)
	if perr != nil {
		return nil, perr
	}
	if len(man.Fragments) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyManuscript, cfg.ManuscriptDir)
	}
	report.Fragments = man.Included()
	log.Debug("manuscript planned", "fragments", len(man.Fragments))

	resolver := metadata.New(s.cfg.logger)
	values := metadata.Values{}
	if cfg.ValuesFile != "" {
		v, verr := metadata.LoadValues(cfg.ValuesFile)
		switch {
		case errors.Is(verr, os.ErrNotExist):
			log.Debug("no metadata values file", "path", cfg.ValuesFile)
		case verr != nil:
			return nil, verr
		default:
			values = v
		}
	}
	doc, derr := resolver.Resolve(cfg.MetadataFile, values, started)
	if derr != nil {
		return nil, derr
	}
	metaPath, metaCleanup, werr := doc.WriteTemp()
	if werr != nil {
		return nil, werr
	}
	defer metaCleanup()

	language := resolver.Language(cfg.Language, doc)
	report.Language = language
	log.Info("using language", "language", language)

	// Prior artifacts are snapshotted before anything overwrites them.
	backupPath, skipped, berr := backup.Snapshot(cfg.OutputDir, started)
	if berr != nil {
		return nil, berr
	}
	if skipped {
		log.Debug("output directory empty, nothing to back up", "dir", cfg.OutputDir)
	} else {
		report.BackupPath = backupPath
		log.Info("prior output backed up", "backup", backupPath)
	}
	if cerr := fileutil.ClearDir(cfg.OutputDir); cerr != nil {
		log.Error("preparing output directory failed",
			"dir", cfg.OutputDir, "hint", hints.ForOutputDirectory())
		return nil, fmt.Errorf("preparing output directory: %w", cerr)
	}

	report.Formats = s.newExporter(&cfg).runFormats(ctx, man, metaPath, language)

	if cfg.KeepMerged {
		path := cfg.MergedPath()
		if kerr := os.WriteFile(path, []byte(man.Merged("")), 0o644); kerr != nil { // #nosec G306 -- artifacts are meant to be readable
			log.Warn("could not keep merged manuscript", "error", kerr)
		} else {
			report.MergedPath = path
		}
	}

	report.FinishedAt = s.cfg.now()
	if werr := report.write(cfg.OutputDir); werr != nil {
		log.Warn("could not write run report", "error", werr)
	}

	var produced, skippedFormats, failed int
	for _, fr := range report.Formats {
		switch fr.Outcome {
		case OutcomeProduced:
			produced++
		case OutcomeSkipped:
			skippedFormats++
		case OutcomeFailed:
			failed++
		}
	}
	log.Info("export finished",
		"run_id", report.RunID, "produced", produced, "skipped", skippedFormats,
		"failed", failed, "output", cfg.OutputDir)

	return report, nil
}

// formatNames renders a format list for logging.
func formatNames(formats []Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}
