package kfmt

import "github.com/phuslu/log"

// Log is the structured kernel logger. Its records are rendered in console
// format and written to the kernel console, so they share the sink (and the
// early buffer) with Printf.
var Log = newLogger(log.InfoLevel)

// SetLogLevel replaces the kernel logger with one that emits records at or
// above the named level ("trace", "debug", "info", "warn", "error"). Unknown
// names select the info level. It is meant to be called once during start-up.
func SetLogLevel(level string) {
	Log = newLogger(log.ParseLevel(level))
}

func newLogger(level log.Level) *log.Logger {
	return &log.Logger{
		Level: level,
		Writer: &log.ConsoleWriter{
			ColorOutput:    false,
			EndWithMessage: true,
			Writer:         Console,
		},
	}
}
