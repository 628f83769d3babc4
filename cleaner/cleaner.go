// Package cleaner applies retention rules to directory trees.
package cleaner

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"fsclean/rule"

	"github.com/briandowns/spinner"
	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

// stderrIsTerminal is replaced in tests.
var stderrIsTerminal = func() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Summary totals what a run did.
type Summary struct {
	Rules      int
	Candidates int
	Outcomes   map[Outcome]int
	Reclaimed  int64
	DirsPruned int
	LogsSwept  int
	FileErrors int
}

func (s Summary) String() string {
	outcomes := make([]string, 0, len(s.Outcomes))
	for o, n := range s.Outcomes {
		outcomes = append(outcomes, fmt.Sprintf("%s=%d", o, n))
	}
	sort.Strings(outcomes)

	return fmt.Sprintf("%d rules, %d matching files (%s), %s reclaimed, %d empty dirs pruned, %d old logs deleted, %d errors",
		s.Rules, s.Candidates, strings.Join(outcomes, " "), humanize.Bytes(uint64(s.Reclaimed)), s.DirsPruned, s.LogsSwept, s.FileErrors)
}

// Run applies rules one after the other, in order, then deletes expired
// fsclean logs. Per-file failures are logged and counted; they never stop
// the run.
func Run(rc *RunContext, rules []rule.Rule) Summary {
	start := time.Now()
	rc.Log.Info().Int("rules", len(rules)).Time("now", rc.Now).Msg("fsclean start")

	s := Summary{Rules: len(rules), Outcomes: make(map[Outcome]int)}
	for i, r := range rules {
		runRule(rc, i+1, r, &s)
	}

	s.LogsSwept = SweepLogs(rc)
	s.FileErrors = rc.fileErrors

	rc.Metrics.RunFinished(rc.Now, time.Since(start))
	rc.Log.Info().
		Int("candidates", s.Candidates).
		Str("reclaimed", humanize.Bytes(uint64(s.Reclaimed))).
		Int("dirsPruned", s.DirsPruned).
		Int("logsSwept", s.LogsSwept).
		Int("fileErrors", s.FileErrors).
		Msg("fsclean completed")
	return s
}

func runRule(rc *RunContext, n int, r rule.Rule, s *Summary) {
	rc.Log.Info().
		Int("rule", n).
		Str("mode", string(r.Mode)).
		Str("dir", r.Root).
		Str("scope", string(r.Scope)).
		Str("condition", r.Condition).
		Int("days", r.Days).
		Str("action", string(r.Action)).
		Msg("processing rule")
	if r.Mode == rule.ModeDebug {
		rc.Log.Info().Int("rule", n).Msg("DEBUG mode: files are not changed, log only")
	}

	if spin := startSpinner(rc, r.Root); spin != nil {
		defer spin.Stop()
	}

	for c := range Candidates(rc, r) {
		s.Candidates++
		rc.Metrics.Candidate(string(r.Action), string(r.Mode))

		res, err := Apply(rc, r, c)
		if err != nil {
			rc.reportFileError(err)
		}
		s.Outcomes[res.Outcome]++
		s.Reclaimed += res.Reclaimed
		rc.Metrics.Outcome(string(r.Action), string(res.Outcome))
		rc.Metrics.Reclaimed(res.Reclaimed)
	}

	s.DirsPruned += PruneEmptyDirs(rc, r)
}

// startSpinner shows progress for root on stderr. It returns nil when
// progress is off or stderr is not a terminal, where the spinner frames
// would end up mixed into the log output.
func startSpinner(rc *RunContext, root string) *spinner.Spinner {
	if !rc.Progress || !stderrIsTerminal() {
		return nil
	}
	// Create a new spinner with rotating character set
	spin := spinner.New(spinner.CharSets[50], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " " + root
	spin.Start()
	return spin
}
