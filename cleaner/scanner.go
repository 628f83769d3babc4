package cleaner

import (
	"io/fs"
	"iter"
	"path/filepath"

	"fsclean/rule"
)

// Candidates walks the rule's root and yields every regular file older than
// the rule's threshold whose name satisfies the rule's scope. The walk is
// lazy and starts over each time the sequence is ranged over. Files that
// cannot be read are reported and skipped. Order is not guaranteed.
func Candidates(rc *RunContext, r rule.Rule) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		threshold := r.Threshold()

		_ = filepath.WalkDir(r.Root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				rc.reportFileError(&FileError{Op: "walk", Path: path, Err: err})
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				// removed between readdir and stat
				rc.reportFileError(&FileError{Op: "stat", Path: path, Err: err})
				return nil
			}
			if rc.Age(info.ModTime()) <= threshold || !r.Matches(d.Name()) {
				return nil
			}

			if !yield(Candidate{Path: path, ModTime: info.ModTime(), Size: info.Size()}) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}
