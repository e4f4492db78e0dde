// Package logging builds the charmbracelet/log logger used by lint-gate.
//
// The gate writes its own messages to stderr only. The checker's output is
// never routed through the logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"

	"github.com/shinji-kodama/lint-gate/internal/config"
)

// New returns a logger writing to w at the given level and format.
// The "auto" format picks text for a terminal and logfmt otherwise, so CI
// logs stay grep-friendly.
func New(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	formatter, err := formatterFor(w, format)
	if err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(w, log.Options{
		Level:     lvl,
		Prefix:    "lint-gate",
		Formatter: formatter,
	})
	logger.SetStyles(styles())
	return logger, nil
}

// Default returns an error-level text logger on stderr. It is used before
// the configuration has been loaded.
func Default() *log.Logger {
	logger, _ := New(os.Stderr, "error", config.LogFormatAuto)
	return logger
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}

func formatterFor(w io.Writer, format string) (log.Formatter, error) {
	switch format {
	case config.LogFormatText:
		return log.TextFormatter, nil
	case config.LogFormatLogfmt:
		return log.LogfmtFormatter, nil
	case config.LogFormatJSON:
		return log.JSONFormatter, nil
	case config.LogFormatAuto, "":
		if isTerminal(w) {
			return log.TextFormatter, nil
		}
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	s.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("FAIL").
		Padding(0, 1).
		Background(lipgloss.Color("#f38ba8")).
		Foreground(lipgloss.Color("#1e1e2e"))
	s.Keys["checker"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#89dceb"))
	s.Keys["exit"] = lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af"))
	return s
}
