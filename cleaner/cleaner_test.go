package cleaner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fsclean/metrics"
	"fsclean/rule"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseRule(t *testing.T, fields ...string) rule.Rule {
	t.Helper()
	r, err := rule.Parse(rule.Record{Fields: fields})
	require.NoError(t, err)
	return r
}

func TestRunSpecificDelete(t *testing.T) {
	rc, _ := newTestContext(t)
	root := t.TempDir()
	tmp := filepath.Join(root, "tmp_foo.txt")
	other := filepath.Join(root, "other.txt")
	writeAged(t, tmp, "temp", days(40))
	writeAged(t, other, "keep", days(40))

	s := Run(rc, []rule.Rule{parseRule(t, "RUN", root, "SPECIFIC", "tmp_", "30", "DELETE")})

	assert.False(t, exists(tmp))
	assert.True(t, exists(other))
	assert.Equal(t, 1, s.Candidates)
	assert.Equal(t, 1, s.Outcomes[OutcomeDeleted])
	assert.Equal(t, int64(4), s.Reclaimed)
}

func TestRunDebugNullify(t *testing.T) {
	rc, buf := newTestContext(t)
	root := t.TempDir()
	path := filepath.Join(root, "data.bin")
	writeAged(t, path, string(make([]byte, 100)), days(10))
	before := snapshot(t, root)

	s := Run(rc, []rule.Rule{parseRule(t, "DEBUG", root, "ALL", "", "5", "NULLIFY")})

	assert.Equal(t, before, snapshot(t, root))
	assert.Equal(t, 1, s.Outcomes[OutcomePlanned])
	assert.Contains(t, buf.String(), "[DEBUG] would nullify file")
	assert.Contains(t, buf.String(), path)
}

func TestRunDebugMakesNoChanges(t *testing.T) {
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "a.log"), "aaaa", days(50))
	writeAged(t, filepath.Join(root, "tmp_b.log"), "bbbb", days(50))
	writeAged(t, filepath.Join(root, "c.log.gz"), "cccc", days(50))
	writeAged(t, filepath.Join(root, "empty.log"), "", days(50))
	mkdirs(t, root, "202401", "2023/02/01")
	before := snapshot(t, root)

	var rules []rule.Rule
	for _, scope := range []string{"ALL", "SPECIFIC"} {
		for _, action := range []string{"DELETE", "NULLIFY", "COMPRESS"} {
			rules = append(rules, parseRule(t, "DEBUG", root, scope, "tmp_", "1", action))
		}
	}

	// twice, to show the run is repeatable
	for i := 0; i < 2; i++ {
		rc, _ := newTestContext(t)
		s := Run(rc, rules)
		assert.Zero(t, s.Outcomes[OutcomeDeleted]+s.Outcomes[OutcomeNullified]+s.Outcomes[OutcomeCompressed])
		assert.Equal(t, before, snapshot(t, root))
	}
}

func TestRunCompressTwice(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "events.json")
	writeAged(t, path, `{"a":1}`, days(20))
	rules := []rule.Rule{parseRule(t, "RUN", root, "ALL", "", "7", "COMPRESS")}

	rc, _ := newTestContext(t)
	s := Run(rc, rules)
	require.Equal(t, 1, s.Outcomes[OutcomeCompressed])
	assert.False(t, exists(path))
	assert.True(t, exists(path+".gz"))

	// the archive keeps the original mtime, so it is a candidate again
	before := snapshot(t, root)
	rc, _ = newTestContext(t)
	s = Run(rc, rules)
	assert.Equal(t, 1, s.Outcomes[OutcomeSkipped])
	assert.Equal(t, before, snapshot(t, root))
}

func TestRunNeverTouchesLogDir(t *testing.T) {
	root := t.TempDir()
	rc, _ := newTestContext(t)
	rc.LogDir = filepath.Join(root, "logs")
	own := filepath.Join(rc.LogDir, "fsclean_20240610.log")
	writeAged(t, own, "recent log", days(5))
	victim := filepath.Join(root, "old.txt")
	writeAged(t, victim, "x", days(30))

	// compress keeps the mtime, so the archive is deleted by the second rule
	rules := []rule.Rule{
		parseRule(t, "RUN", root, "ALL", "", "1", "COMPRESS"),
		parseRule(t, "RUN", root, "ALL", "", "1", "DELETE"),
		parseRule(t, "RUN", root, "ALL", "", "1", "NULLIFY"),
	}
	s := Run(rc, rules)

	assert.True(t, exists(own))
	assert.False(t, exists(victim))
	assert.False(t, exists(victim+".gz"))
	assert.Equal(t, 3, s.Outcomes[OutcomeProtected])
	assert.Zero(t, s.LogsSwept)
}

func TestRunSymlinkedRootKeepsLogDir(t *testing.T) {
	target, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	link := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.Symlink(target, link))

	rc, _ := newTestContext(t)
	rc.LogDir = filepath.Join(link, "logs")
	own := filepath.Join(target, "logs", "fsclean_20240610.log")
	writeAged(t, own, "recent log", days(5))
	victim := filepath.Join(target, "old.txt")
	writeAged(t, victim, "x", days(30))

	s := Run(rc, []rule.Rule{parseRule(t, "RUN", link, "ALL", "", "1", "DELETE")})

	assert.True(t, exists(own))
	assert.False(t, exists(victim))
	assert.Equal(t, 1, s.Outcomes[OutcomeDeleted])
	assert.Equal(t, 1, s.Outcomes[OutcomeProtected])
}

func TestRunSweepsOwnLogsOnce(t *testing.T) {
	rc, _ := newTestContext(t)
	root := t.TempDir()
	old := filepath.Join(rc.LogDir, "fsclean_20240501.log")
	young := filepath.Join(rc.LogDir, "fsclean_20240612.log")
	writeAged(t, old, "x", days(30))
	writeAged(t, young, "x", days(3))

	// a DEBUG rule does not stop the sweep from deleting
	s := Run(rc, []rule.Rule{parseRule(t, "DEBUG", root, "ALL", "", "1", "DELETE")})

	assert.Equal(t, 1, s.LogsSwept)
	assert.False(t, exists(old))
	assert.True(t, exists(young))
}

func TestRunPrunesAfterDelete(t *testing.T) {
	rc, _ := newTestContext(t)
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "2024", "01", "a.log"), "a", days(90))
	writeAged(t, filepath.Join(root, "2024", "05", "b.log"), "b", days(2))

	s := Run(rc, []rule.Rule{parseRule(t, "RUN", root, "ALL", "", "30", "DELETE")})

	assert.Equal(t, 1, s.DirsPruned)
	assert.False(t, exists(filepath.Join(root, "2024", "01")))
	assert.True(t, exists(filepath.Join(root, "2024", "05", "b.log")))
}

func TestRunRecordsMetrics(t *testing.T) {
	rc, _ := newTestContext(t)
	rc.Metrics = metrics.New()
	root := t.TempDir()
	writeAged(t, filepath.Join(root, "a"), "12345", days(9))
	writeAged(t, filepath.Join(root, "b"), "", days(9))

	s := Run(rc, []rule.Rule{parseRule(t, "RUN", root, "ALL", "", "1", "NULLIFY")})

	assert.Equal(t, 2, s.Candidates)
	assert.Equal(t, 1, s.Outcomes[OutcomeNullified])
	assert.Equal(t, 1, s.Outcomes[OutcomeSkipped])

	const want = `
# HELP fsclean_bytes_reclaimed_total Bytes freed on disk by rule actions
# TYPE fsclean_bytes_reclaimed_total counter
fsclean_bytes_reclaimed_total 5
`
	assert.NoError(t, testutil.GatherAndCompare(rc.Metrics.Registry(), strings.NewReader(want), "fsclean_bytes_reclaimed_total"))
}

func TestSummaryString(t *testing.T) {
	s := Summary{
		Rules:      2,
		Candidates: 3,
		Outcomes:   map[Outcome]int{OutcomeDeleted: 2, OutcomeFailed: 1},
		Reclaimed:  2048,
		DirsPruned: 1,
		LogsSwept:  4,
		FileErrors: 1,
	}

	assert.Equal(t, "2 rules, 3 matching files (deleted=2 failed=1), 2.0 kB reclaimed, 1 empty dirs pruned, 4 old logs deleted, 1 errors", s.String())
}

func TestSpinnerNeedsTerminal(t *testing.T) {
	defer func(orig func() bool) { stderrIsTerminal = orig }(stderrIsTerminal)
	rc, _ := newTestContext(t)

	stderrIsTerminal = func() bool { return true }
	assert.Nil(t, startSpinner(rc, "/data"))

	rc.Progress = true
	stderrIsTerminal = func() bool { return false }
	assert.Nil(t, startSpinner(rc, "/data"))

	stderrIsTerminal = func() bool { return true }
	spin := startSpinner(rc, "/data")
	require.NotNil(t, spin)
	spin.Stop()
}
