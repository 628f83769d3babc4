package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	day := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, filepath.Join("/tmp/fsclean", "fsclean_20240309.log"), FileName("/tmp/fsclean", day))
}

func TestNewWritesConsoleAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer
	now := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	log, closer, err := New(Options{Dir: dir, Console: &console, NoColor: true}, now)
	require.NoError(t, err)

	log.Info().Str("path", "/data/app/tmp_foo.txt").Msg("[RUN] deleted file")
	log.Debug().Msg("hidden at info level")
	require.NoError(t, closer.Close())

	assert.Contains(t, console.String(), "[RUN] deleted file")
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(FileName(dir, now))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"[RUN] deleted file"`)
	assert.Contains(t, string(data), `"path":"/data/app/tmp_foo.txt"`)
}

func TestNewAppends(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	for i := 0; i < 2; i++ {
		log, closer, err := New(Options{Dir: dir, Console: &bytes.Buffer{}}, now)
		require.NoError(t, err)
		log.Info().Msg("run")
		require.NoError(t, closer.Close())
	}

	data, err := os.ReadFile(FileName(dir, now))
	require.NoError(t, err)
	assert.Equal(t, 2, bytes.Count(data, []byte(`"message":"run"`)))
}

func TestNewConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Options{Level: "debug", Console: &console, NoColor: true}, time.Now())
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Msg("visible")
	assert.Contains(t, console.String(), "visible")
}

func TestNewBadLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"}, time.Now())
	assert.Error(t, err)
}
