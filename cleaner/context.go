package cleaner

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"fsclean/metrics"

	"github.com/rs/zerolog"
)

// RunContext carries everything shared by one run. Now is captured once so
// that every age in the run is measured against the same instant.
type RunContext struct {
	Now      time.Time
	LogDir   string
	Log      zerolog.Logger
	Metrics  *metrics.Recorder
	Progress bool

	fileErrors int
}

// NewRunContext returns a RunContext for a run starting now.
func NewRunContext(now time.Time, logDir string, log zerolog.Logger) *RunContext {
	return &RunContext{Now: now, LogDir: logDir, Log: log}
}

// Age returns how old a modification time is relative to the run start.
func (rc *RunContext) Age(mtime time.Time) time.Duration {
	return rc.Now.Sub(mtime)
}

// IsProtected reports whether path is the log directory or lies below it.
// Rules never act on such paths. The log directory is compared both as
// configured and with symlinks resolved, since rule roots are resolved.
func (rc *RunContext) IsProtected(path string) bool {
	if rc.LogDir == "" {
		return false
	}
	if within(rc.LogDir, path) {
		return true
	}
	resolved, err := filepath.EvalSymlinks(rc.LogDir)
	return err == nil && within(resolved, path)
}

func within(dir, path string) bool {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (rc *RunContext) reportFileError(err error) {
	rc.fileErrors++
	op := "unknown"
	var fe *FileError
	if errors.As(err, &fe) {
		op = fe.Op
	}
	rc.Metrics.FileError(op)
	rc.Log.Error().Err(err).Msg("file operation failed, skipping")
}

// FileError is a failure on a single file or directory. It is logged and the
// run moves on to the next path.
type FileError struct {
	Op   string
	Path string
	Err  error
}

func (e *FileError) Error() string {
	cause := e.Err
	var pe *fs.PathError
	if errors.As(cause, &pe) && pe.Path == e.Path {
		cause = pe.Err
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, cause)
}

func (e *FileError) Unwrap() error { return e.Err }

// Outcome is what happened to one candidate file.
type Outcome string

const (
	OutcomeDeleted    Outcome = "deleted"
	OutcomeNullified  Outcome = "nullified"
	OutcomeCompressed Outcome = "compressed"
	// OutcomePlanned is the result of every action in DEBUG mode.
	OutcomePlanned   Outcome = "planned"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeProtected Outcome = "protected"
	OutcomeFailed    Outcome = "failed"
)

// Candidate is a file that matched a rule's age and scope.
type Candidate struct {
	Path    string
	ModTime time.Time
	Size    int64
}
