package cleaner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"fsclean/rule"
)

// LogRetention is how long fsclean keeps its own log files.
const LogRetention = 10 * rule.Day

// SweepLogs deletes files in the log directory older than LogRetention and
// returns how many were removed. It always deletes for real, whatever the
// mode of the configured rules.
func SweepLogs(rc *RunContext) int {
	if rc.LogDir == "" {
		return 0
	}
	rc.Log.Info().Str("logDir", rc.LogDir).Msg("start deleting expired fsclean logs")

	dir := rc.LogDir
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}

	swept := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir && errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipAll
			}
			rc.reportFileError(&FileError{Op: "walk", Path: path, Err: err})
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			rc.reportFileError(&FileError{Op: "stat", Path: path, Err: err})
			return nil
		}
		if rc.Age(info.ModTime()) <= LogRetention {
			return nil
		}

		if err := os.Remove(path); err != nil {
			rc.reportFileError(&FileError{Op: "delete log", Path: path, Err: err})
			return nil
		}
		rc.Log.Info().Str("path", path).Msg("deleted expired fsclean log")
		rc.Metrics.LogSwept()
		swept++
		return nil
	})
	if err != nil {
		rc.Log.Error().Err(err).Str("logDir", rc.LogDir).Msg("error walking the log directory")
	}
	return swept
}
