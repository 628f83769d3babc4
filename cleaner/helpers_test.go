package cleaner

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"fsclean/rule"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// newTestContext returns a RunContext whose log output is captured in the
// returned buffer. The log directory is a fresh temp dir.
func newTestContext(t *testing.T) (*RunContext, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	rc := NewRunContext(testNow, t.TempDir(), zerolog.New(&buf))
	return rc, &buf
}

// writeAged creates path with content and sets its mtime to testNow minus age.
func writeAged(t *testing.T, path, content string, age time.Duration) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	mtime := testNow.Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func days(n int) time.Duration { return time.Duration(n) * rule.Day }

// snapshot records every path below root with its size and mtime.
func snapshot(t *testing.T, root string) map[string]string {
	t.Helper()
	out := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		info, err := d.Info()
		require.NoError(t, err)
		out[path] = info.Mode().String() + " " + info.ModTime().String()
		if d.Type().IsRegular() {
			data, err := os.ReadFile(path)
			require.NoError(t, err)
			out[path] += " " + string(data)
		}
		return nil
	})
	require.NoError(t, err)
	return out
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
