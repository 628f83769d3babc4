package cleaner

import (
	"os"
	"path/filepath"
	"regexp"

	"fsclean/rule"
)

// datePartition matches a path segment that starts with YYYYMM, or a pair of
// segments YYYY/MM, with a month from 01 to 12.
var datePartition = regexp.MustCompile(`(^|/)\d{4}(0[1-9]|1[0-2])|(^|/)\d{4}/(0[1-9]|1[0-2])(/|$)`)

// IsDatePartitioned reports whether path belongs to a year-month partitioned
// tree, e.g. /archive/202401 or /archive/2024/01.
func IsDatePartitioned(path string) bool {
	return datePartition.MatchString(filepath.ToSlash(path))
}

// PruneEmptyDirs removes the empty date-partitioned directories below the
// rule's root and returns how many were removed (or would be, in DEBUG mode).
// It only acts for rules that delete everything; see rule.Rule.PrunesEmptyDirs.
// The root itself and the log directory are never removed.
func PruneEmptyDirs(rc *RunContext, r rule.Rule) int {
	if !r.PrunesEmptyDirs() {
		return 0
	}
	rc.Log.Info().Str("root", r.Root).Msg("start deleting empty directories")

	p := &pruner{rc: rc, rule: r}
	p.prune(r.Root)
	return p.pruned
}

type pruner struct {
	rc     *RunContext
	rule   rule.Rule
	pruned int
}

// prune visits children before their parent so that a parent emptied by
// pruning its children is removed in the same pass. It reports whether dir
// is gone.
func (p *pruner) prune(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		p.rc.reportFileError(&FileError{Op: "read dir", Path: dir, Err: err})
		return false
	}

	remaining := 0
	for _, e := range entries {
		if e.IsDir() && p.prune(filepath.Join(dir, e.Name())) {
			continue
		}
		remaining++
	}

	if remaining > 0 || dir == p.rule.Root || p.rc.IsProtected(dir) || !IsDatePartitioned(dir) {
		return false
	}

	log := p.rc.Log.With().Str("path", dir).Logger()
	if p.rule.Mode != rule.ModeRun {
		log.Info().Msg("[DEBUG] would delete empty directory")
		p.pruned++
		return true
	}

	if err := os.Remove(dir); err != nil {
		p.rc.reportFileError(&FileError{Op: "remove dir", Path: dir, Err: err})
		return false
	}
	log.Info().Msg("[RUN] deleted empty directory")
	p.rc.Metrics.DirPruned()
	p.pruned++
	return true
}
