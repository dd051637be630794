// Package logger configures the charmbracelet logger shared by the runtime and
// the CLI. Machines derive their own prefixed logger from it.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	output io.Writer = os.Stderr
	format           = log.TextFormatter

	// Logger is the global logger.
	Logger = newLogger(os.Stderr, log.TextFormatter, log.WarnLevel)
)

func newLogger(w io.Writer, f log.Formatter, level log.Level) *log.Logger {
	l := log.NewWithOptions(w, log.Options{Formatter: f, Level: level})
	l.SetTimeFormat("")
	return l
}

// Configure sets the level (debug, info, warn, error) and the format (text,
// json, logfmt) of the global logger. An empty level falls back to
// UIMACHINE_LOG_LEVEL, then warn. A nil w keeps the current output.
func Configure(level, fmtName string, w io.Writer) error {
	if level == "" {
		level = os.Getenv("UIMACHINE_LOG_LEVEL")
	}
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	f, err := parseFormat(fmtName)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	if w != nil {
		output = w
	}
	format = f
	Logger = newLogger(output, f, lvl)
	return nil
}

// ParseLevel converts a level name. Empty means warn.
func ParseLevel(level string) (log.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel, nil
	case "info":
		return log.InfoLevel, nil
	case "", "warn", "warning":
		return log.WarnLevel, nil
	case "error":
		return log.ErrorLevel, nil
	case "fatal":
		return log.FatalLevel, nil
	}
	return log.WarnLevel, fmt.Errorf("unknown log level %q", level)
}

func parseFormat(name string) (log.Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	}
	return log.TextFormatter, fmt.Errorf("unknown log format %q", name)
}

// New returns a component logger with a styled prefix. It shares the output,
// format and level of the global logger at the time of the call.
func New(prefix string) *log.Logger {
	mu.RLock()
	w, f, lvl := output, format, Logger.GetLevel()
	mu.RUnlock()

	styles := log.DefaultStyles()
	level := func(name, bg string) lipgloss.Style {
		return lipgloss.NewStyle().
			SetString(name).
			Padding(0, 1, 0, 1).
			Background(lipgloss.Color(bg)).
			Foreground(lipgloss.Color("15"))
	}
	styles.Levels[log.DebugLevel] = level("DEBUG", "240")
	styles.Levels[log.InfoLevel] = level("INFO", "33")
	styles.Levels[log.WarnLevel] = level("WARN", "214")
	styles.Levels[log.ErrorLevel] = level("ERROR", "196")
	styles.Levels[log.FatalLevel] = level("FATAL", "88")

	styles.Keys["event"] = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styles.Keys["state"] = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styles.Values["state"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	styles.Values["error"] = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	l := log.NewWithOptions(w, log.Options{Prefix: prefix, Formatter: f, Level: lvl})
	l.SetTimeFormat("")
	l.SetStyles(styles)
	return l
}
