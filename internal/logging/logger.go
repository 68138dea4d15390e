package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	clog "github.com/charmbracelet/log"
)

// L is the package-level logger. The TUI points it at a file so log lines
// never land on the alternate screen.
var L = clog.NewWithOptions(os.Stderr, clog.Options{Prefix: "itemsubmit"})

// Setup sets the level by name ("debug", "info", "warn", "error") and, when
// w is not nil, the destination.
func Setup(level string, w io.Writer) error {
	if w != nil {
		L.SetOutput(w)
	}
	if strings.TrimSpace(level) == "" {
		return nil
	}
	lvl, err := clog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	L.SetLevel(lvl)
	return nil
}

// OpenFile opens path for appending log lines.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

func Debugf(format string, v ...any) {
	L.Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	L.Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	L.Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	L.Error(fmt.Sprintf(format, v...))
}
