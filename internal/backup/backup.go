// Package backup archives prior export output before a new run is
// allowed to overwrite it. Snapshots are timestamped siblings of the
// output directory and are never overwritten or pruned.
package backup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/alnah/go-bookexport/internal/fileutil"
)

// ErrBackupFailed reports that a snapshot could not be completed. The
// caller must abort before anything overwrites the prior output.
var ErrBackupFailed = errors.New("backup failed")

// timestampLayout names snapshots down to the second, e.g.
// output-backup-20260823-153004.
const timestampLayout = "20060102-150405"

// Snapshot copies the output directory to a timestamped sibling when it
// holds artifacts from a prior run. Returns the backup path, or
// skipped=true when the directory is absent or empty and nothing needed
// backing up. An existing sibling with the same timestamp is never
// touched; a numeric suffix is appended instead.
func Snapshot(outputDir string, now time.Time) (backupPath string, skipped bool, err error) {
	has, err := fileutil.DirHasEntries(outputDir)
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	if !has {
		return "", true, nil
	}

	base := filepath.Clean(outputDir) + "-backup-" + now.Format(timestampLayout)
	candidate := base
	for i := 2; ; i++ {
		if _, err := os.Stat(candidate); errors.Is(err, os.ErrNotExist) {
			break
		}
		candidate = base + "-" + strconv.Itoa(i)
	}

	if err := fileutil.CopyTree(outputDir, candidate); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrBackupFailed, err)
	}
	return candidate, false, nil
}
