// Package logging configures the global zerolog logger for the CLI.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the rotating log file written under the log directory.
const FileName = "zseed.log"

// Init sets up console logging on stderr and, when dir is not empty, a
// rotating log file in dir. verbose lowers the level to debug. The
// returned closer releases the log file.
func Init(verbose bool, dir string) (zerolog.Logger, io.Closer, error) {
	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	if dir == "" {
		l := New(console, nil, verbose)
		log.Logger = l
		return l, nopCloser{}, nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	file := &lumberjack.Logger{
		Filename:   filepath.Join(dir, FileName),
		MaxSize:    16, // megabytes
		MaxBackups: 8,
		MaxAge:     90, // days
		Compress:   true,
	}

	l := New(console, file, verbose)
	log.Logger = l
	return l, file, nil
}

// New builds a timestamped logger writing to console and, when file is
// not nil, to file as JSON.
func New(console io.Writer, file io.Writer, verbose bool) zerolog.Logger {
	w := console
	if file != nil {
		w = zerolog.MultiLevelWriter(console, file)
	}
	return zerolog.New(w).Level(Level(verbose)).With().Timestamp().Logger()
}

// Level is debug when verbose, info otherwise.
func Level(verbose bool) zerolog.Level {
	if verbose {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
