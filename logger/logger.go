// Package logger creates the leveled, module-scoped loggers used by the
// trace preparation, batch, and command-line layers.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/op/go-logging"
)

const defaultLogFormat = "%{color}%{level:.1s} %{time:15:04:05} [%{module}]%{color:reset} %{message}"

// NewLogger creates a logger for module that writes to stderr. Unknown level
// names fall back to INFO.
func NewLogger(level string, module string) *logging.Logger {
	return NewLoggerTo(os.Stderr, level, module)
}

// NewLoggerTo creates a logger for module that writes to w.
func NewLoggerTo(w io.Writer, level string, module string) *logging.Logger {
	backend := logging.NewLogBackend(w, "", 0)
	formatter := logging.NewBackendFormatter(
		backend, logging.MustStringFormatter(defaultLogFormat))

	leveled := logging.AddModuleLevel(formatter)

	lvl, err := logging.LogLevel(level)
	if err != nil {
		lvl = logging.INFO
	}

	leveled.SetLevel(lvl, module)

	log := logging.MustGetLogger(module)
	log.SetBackend(leveled)

	return log
}

// ParseTime splits a duration into whole hours, minutes, and seconds.
func ParseTime(elapsed time.Duration) (hours, minutes, seconds uint32) {
	total := uint32(elapsed.Round(time.Second).Seconds())

	hours = total / 3600
	minutes = total % 3600 / 60
	seconds = total % 60

	return hours, minutes, seconds
}
