package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/zfogg/formdesk/internal/cli/config"
)

var logger *log.Logger

// Init logs to the configured file, or to stderr when it cannot be opened.
func Init(verbose bool) {
	level := log.InfoLevel
	if parsed, err := log.ParseLevel(config.GetString("log.level")); err == nil {
		level = parsed
	}
	if verbose {
		level = log.DebugLevel
	}

	var w io.Writer = os.Stderr
	if f, err := os.OpenFile(config.GetString("log.file"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
		w = f
	}

	logger = log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		Prefix:          "formdesk",
	})
}

func Debug(msg string, args ...interface{}) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

func Info(msg string, args ...interface{}) {
	if logger != nil {
		logger.Info(msg, args...)
	}
}

func Warn(msg string, args ...interface{}) {
	if logger != nil {
		logger.Warn(msg, args...)
	}
}

func Error(msg string, args ...interface{}) {
	if logger != nil {
		logger.Error(msg, args...)
	}
}
