// Package logging builds the run logger: slog text records appended to a
// rotating file, optionally teed to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// FileName is the log file created under the log home.
	FileName = "nypl_menus_data_transform.log"
	// LoggerName is attached to every record.
	LoggerName = "MenusDataTransformLogger"

	maxSizeMB  = 1
	maxBackups = 10
)

// Options configures New.
type Options struct {
	Home    string // directory for FileName; empty disables the file
	Verbose bool   // debug level, and tee to Stderr
	Stderr  io.Writer
	RunID   string // generated when empty
}

// New returns the run logger and a close function for the file writer.
func New(opts Options) (*slog.Logger, func() error, error) {
	var writers []io.Writer
	closeFn := func() error { return nil }

	if opts.Home != "" {
		if err := os.MkdirAll(opts.Home, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory %s: %w", opts.Home, err)
		}
		lj := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Home, FileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
		}
		writers = append(writers, lj)
		closeFn = lj.Close
	}
	if opts.Verbose && opts.Stderr != nil {
		writers = append(writers, opts.Stderr)
	}

	var w io.Writer
	switch len(writers) {
	case 0:
		w = io.Discard
	case 1:
		w = writers[0]
	default:
		w = io.MultiWriter(writers...)
	}

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}

	runID := opts.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	log := slog.New(h).With("logger", LoggerName, "run_id", runID)
	return log, closeFn, nil
}
