// Package logger provides leveled, component-named logging for all netlat
// roles. Every package obtains its own entry via New so log lines can be
// traced back to the component that emitted them.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// root is the shared logrus instance all component loggers derive from.
// Logs go to stderr so the per-iteration measurement output on stdout
// stays machine-readable.
var root = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return l
}()

// New returns a logger for the given component (e.g. "relay", "echo").
func New(component string) *logrus.Entry {
	return root.WithField("component", component)
}

// SetLevel configures the global log level from its string representation
func SetLevel(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}
	root.SetLevel(parsed)
	return nil
}

// parseLevel converts a string level to a logrus.Level
func parseLevel(level string) (logrus.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warning", "warn":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}
