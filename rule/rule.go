package rule

import (
	"fmt"
	"strings"
	"time"
)

// Mode decides whether a rule mutates the filesystem or only logs.
type Mode string

const (
	ModeRun   Mode = "RUN"
	ModeDebug Mode = "DEBUG"
)

// Scope decides which files under a rule's root are considered.
type Scope string

const (
	ScopeAll      Scope = "ALL"
	ScopeSpecific Scope = "SPECIFIC"
)

// Action is what happens to a matched file.
type Action string

const (
	ActionDelete   Action = "DELETE"
	ActionNullify  Action = "NULLIFY"
	ActionCompress Action = "COMPRESS"
)

// Day is the unit of Rule.Days.
const Day = 24 * time.Hour

// Rule is one validated retention policy. It is only produced by Parse and is
// handed around by value, so nothing downstream can change it.
type Rule struct {
	Mode      Mode
	Root      string
	Scope     Scope
	Condition string
	Days      int
	Action    Action
}

// Threshold is the minimum age a file must exceed to be acted on.
func (r Rule) Threshold() time.Duration {
	return time.Duration(r.Days) * Day
}

// Matches reports whether a file name satisfies the rule's scope.
//
// For SPECIFIC scope the condition is "prefix" or "prefix,substring"; both
// parts must hold when a substring is given.
func (r Rule) Matches(name string) bool {
	if r.Scope == ScopeAll {
		return true
	}
	prefix, substr, hasSubstr := strings.Cut(r.Condition, ",")
	if !strings.HasPrefix(name, prefix) {
		return false
	}
	if hasSubstr {
		// only the first two tokens are significant
		substr, _, _ = strings.Cut(substr, ",")
		return strings.Contains(name, substr)
	}
	return true
}

// PrunesEmptyDirs reports whether empty date-partitioned directories are
// removed after this rule's files were processed.
func (r Rule) PrunesEmptyDirs() bool {
	return r.Scope == ScopeAll && r.Action == ActionDelete
}

// DryRun returns a copy of r in DEBUG mode.
func (r Rule) DryRun() Rule {
	r.Mode = ModeDebug
	return r
}

func (r Rule) String() string {
	return fmt.Sprintf("%s:%s:%s:%s:%d:%s", r.Mode, r.Root, r.Scope, r.Condition, r.Days, r.Action)
}
