// Package logging builds the logrus logger shared by the broker components.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"pakd/internal/config"
)

// New returns a logger configured from cfg. Unknown levels fall back to warn.
func New(cfg config.LogConfig) *logrus.Logger {
	return NewWithOutput(cfg, os.Stderr)
}

// NewWithOutput is New writing to w.
func NewWithOutput(cfg config.LogConfig, w io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "15:04:05.000",
		})
	}
	return logger
}

// Component returns an entry tagged with the component name.
func Component(logger *logrus.Logger, name string) *logrus.Entry {
	return logger.WithField("component", name)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
