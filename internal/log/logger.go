// Package log provides the structured logger used across jdc. It wraps
// charmbracelet/log with level parsing, JSON output and context
// propagation, and draws a single-line progress counter on terminals.
package log

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Output formats accepted by Options.Format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Options configures a logger.
type Options struct {
	Level  string    // debug, info, warn or error; anything else means info
	Format string    // text or json
	Writer io.Writer // defaults to os.Stderr
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *log.Logger
)

// New creates a logger from opts.
func New(opts Options) *log.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: strings.EqualFold(opts.Format, FormatJSON),
		Level:           ParseLevel(opts.Level),
	})
	if strings.EqualFold(opts.Format, FormatJSON) {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}

// ParseLevel maps a level name to a log level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ValidFormat reports whether format is a known output format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case "", FormatText, FormatJSON:
		return true
	}
	return false
}

// Default returns the package-level logger.
func Default() *log.Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = New(Options{Level: "info"})
	}
	return defaultLogger
}

// SetDefault replaces the package-level logger.
func SetDefault(logger *log.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = logger
}

// SetLevel changes the level of the package-level logger.
func SetLevel(level string) {
	Default().SetLevel(ParseLevel(level))
}
