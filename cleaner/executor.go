package cleaner

import (
	"fmt"
	"os"

	"fsclean/archiver"
	"fsclean/rule"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
)

// Result is what Apply did to a candidate.
type Result struct {
	Outcome Outcome
	// Reclaimed is the number of bytes freed on disk.
	Reclaimed int64
}

// Apply runs the rule's action on one candidate. In DEBUG mode nothing is
// changed and the intended action is only logged. Files inside the log
// directory are never touched. A returned error is always a *FileError and
// does not stop the run.
func Apply(rc *RunContext, r rule.Rule, c Candidate) (Result, error) {
	log := rc.Log.With().Str("path", c.Path).Logger()

	if rc.IsProtected(c.Path) {
		log.Debug().Str("action", string(r.Action)).Msg("file is inside the log directory, leaving it alone")
		return Result{Outcome: OutcomeProtected}, nil
	}

	switch r.Action {
	case rule.ActionDelete:
		return deleteFile(r.Mode, c, log)
	case rule.ActionNullify:
		return nullifyFile(r.Mode, c, log)
	case rule.ActionCompress:
		return compressFile(r.Mode, c, log)
	}
	return Result{Outcome: OutcomeFailed}, &FileError{Op: "apply", Path: c.Path, Err: fmt.Errorf("unknown action %q", r.Action)}
}

func deleteFile(mode rule.Mode, c Candidate, log zerolog.Logger) (Result, error) {
	if mode != rule.ModeRun {
		log.Info().Msg("[DEBUG] would delete file")
		return Result{Outcome: OutcomePlanned}, nil
	}

	if err := os.Remove(c.Path); err != nil {
		return Result{Outcome: OutcomeFailed}, &FileError{Op: "delete", Path: c.Path, Err: err}
	}
	log.Info().Str("size", humanize.Bytes(uint64(c.Size))).Msg("[RUN] deleted file")
	return Result{Outcome: OutcomeDeleted, Reclaimed: c.Size}, nil
}

func nullifyFile(mode rule.Mode, c Candidate, log zerolog.Logger) (Result, error) {
	if c.Size == 0 {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	if mode != rule.ModeRun {
		log.Info().Msg("[DEBUG] would nullify file")
		return Result{Outcome: OutcomePlanned}, nil
	}

	if err := os.Truncate(c.Path, 0); err != nil {
		return Result{Outcome: OutcomeFailed}, &FileError{Op: "nullify", Path: c.Path, Err: err}
	}
	log.Info().Str("size", humanize.Bytes(uint64(c.Size))).Msg("[RUN] nullified file")
	return Result{Outcome: OutcomeNullified, Reclaimed: c.Size}, nil
}

func compressFile(mode rule.Mode, c Candidate, log zerolog.Logger) (Result, error) {
	if archiver.IsCompressed(c.Path) {
		return Result{Outcome: OutcomeSkipped}, nil
	}
	if mode != rule.ModeRun {
		log.Info().Msg("[DEBUG] would compress file")
		return Result{Outcome: OutcomePlanned}, nil
	}

	dst, err := archiver.GzipFile(c.Path)
	if err != nil {
		return Result{Outcome: OutcomeFailed}, &FileError{Op: "compress", Path: c.Path, Err: err}
	}

	// the archive stays even if the original cannot be removed
	if err := os.Remove(c.Path); err != nil {
		return Result{Outcome: OutcomeFailed}, &FileError{Op: "remove original", Path: c.Path, Err: err}
	}

	var reclaimed int64
	if info, err := os.Stat(dst); err == nil && info.Size() < c.Size {
		reclaimed = c.Size - info.Size()
	}
	log.Info().
		Str("archive", dst).
		Str("saved", humanize.Bytes(uint64(reclaimed))).
		Msg("[RUN] compressed file")
	return Result{Outcome: OutcomeCompressed, Reclaimed: reclaimed}, nil
}
