package rule

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// FieldCount is the number of fields in a rule record.
const FieldCount = 6

// MaxDays is the largest day count whose threshold fits in a time.Duration.
const MaxDays = math.MaxInt64 / int64(Day)

// Record is one raw, unvalidated rule as read from configuration.
type Record struct {
	Source string
	Line   int
	Fields []string
}

// Policy decides what ParseAll does with records that fail validation.
type Policy string

const (
	// PolicyAbort rejects the whole rule set if any record is invalid.
	PolicyAbort Policy = "abort"
	// PolicySkip drops invalid records and keeps the valid ones.
	PolicySkip Policy = "skip"
)

// ParsePolicy maps a configuration value to a Policy. Empty means PolicyAbort.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyAbort:
		return PolicyAbort, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown invalid rule policy %q, expected %q or %q", s, PolicyAbort, PolicySkip)
}

var actionAliases = map[string]Action{
	"DELETE":   ActionDelete,
	"NULLIFY":  ActionNullify,
	"NULL":     ActionNullify,
	"COMPRESS": ActionCompress,
	"GZIP":     ActionCompress,
}

// Parse validates a record and builds a Rule from it. Fields are checked in
// order (mode, root, scope, days, action) and the first bad one is reported.
func Parse(rec Record) (Rule, error) {
	if len(rec.Fields) != FieldCount {
		return Rule{}, &FormatError{Source: rec.Source, Line: rec.Line, Fields: len(rec.Fields)}
	}
	mode, root, scope, condition, days, action := rec.Fields[0], rec.Fields[1], rec.Fields[2], rec.Fields[3], rec.Fields[4], rec.Fields[5]

	invalid := func(field, value, reason string) error {
		return &ValueError{Source: rec.Source, Line: rec.Line, Field: field, Value: value, Reason: reason}
	}

	r := Rule{Condition: condition}

	switch Mode(mode) {
	case ModeRun, ModeDebug:
		r.Mode = Mode(mode)
	default:
		return Rule{}, invalid("mode", mode, "expected RUN or DEBUG")
	}

	// the walk does not descend into a symlinked top directory, so the
	// rule keeps the resolved path
	resolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		return Rule{}, invalid("root", root, err.Error())
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return Rule{}, invalid("root", root, err.Error())
	}
	if !info.IsDir() {
		return Rule{}, invalid("root", root, "not a directory")
	}
	r.Root = resolved

	switch Scope(scope) {
	case ScopeAll, ScopeSpecific:
		r.Scope = Scope(scope)
	default:
		return Rule{}, invalid("scope", scope, "expected ALL or SPECIFIC")
	}

	n, err := strconv.ParseUint(days, 10, 64)
	if err != nil || n == 0 {
		return Rule{}, invalid("days", days, "must be a positive integer")
	}
	if n > uint64(MaxDays) {
		return Rule{}, invalid("days", days, fmt.Sprintf("must be at most %d", MaxDays))
	}
	r.Days = int(n)

	a, ok := actionAliases[action]
	if !ok {
		return Rule{}, invalid("action", action, "expected DELETE, NULLIFY or COMPRESS")
	}
	r.Action = a

	return r, nil
}

// ParseAll validates every record. Under PolicyAbort any failure yields no
// rules and an error joining every failure. Under PolicySkip the valid rules
// are returned together with the errors of the rejected records.
func ParseAll(recs []Record, policy Policy) ([]Rule, []error, error) {
	rules := make([]Rule, 0, len(recs))
	var errs []error
	for _, rec := range recs {
		r, err := Parse(rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		rules = append(rules, r)
	}

	if len(errs) > 0 && policy != PolicySkip {
		return nil, nil, errors.Join(errs...)
	}
	return rules, errs, nil
}
