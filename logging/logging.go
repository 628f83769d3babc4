// Package logging builds the zerolog loggers used by fsclean.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// FilePrefix starts the name of every log file fsclean writes.
const FilePrefix = "fsclean_"

// Options configures New.
type Options struct {
	// Level is a zerolog level name; empty means info.
	Level string
	// Dir receives the dated log file. Empty disables file output.
	Dir string
	// Console receives human readable output. Nil means os.Stderr.
	Console io.Writer
	NoColor bool
}

// FileName returns the log file used for runs started on the day of t.
func FileName(dir string, t time.Time) string {
	return filepath.Join(dir, FilePrefix+t.Format("20060102")+".log")
}

// Console returns the console writer shared by every fsclean logger.
func Console(out io.Writer, noColor bool) zerolog.ConsoleWriter {
	if out == nil {
		out = os.Stderr
	}
	return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339, NoColor: noColor}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns a logger writing to the console and, when opts.Dir is set,
// JSON lines appended to the dated log file for now. The returned closer
// releases the file.
func New(opts Options, now time.Time) (zerolog.Logger, io.Closer, error) {
	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("log level: %w", err)
		}
		level = l
	}

	console := Console(opts.Console, opts.NoColor)
	if opts.Dir == "" {
		return zerolog.New(console).Level(level).With().Timestamp().Logger(), nopCloser{}, nil
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(FileName(opts.Dir, now), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file: %w", err)
	}

	w := zerolog.MultiLevelWriter(console, f)
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), f, nil
}
