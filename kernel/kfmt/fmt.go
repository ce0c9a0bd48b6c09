// Package kfmt implements the kernel console: formatted printing, the early
// output buffer used before a console is attached, the panic path and the
// structured kernel logger.
package kfmt

import (
	"fmt"
	"io"

	"cowos/kernel/sync"
)

var (
	// earlyPrintBuffer is a ring buffer that stores Printf output before an
	// output sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer

	// sinkLock serializes writes to outputSink and earlyPrintBuffer so that
	// lines printed by concurrent tasks do not interleave.
	sinkLock sync.Spinlock

	// Console is an io.Writer that forwards its input to the active output
	// sink (or the early print buffer if no sink is attached).
	Console io.Writer = consoleWriter{}
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	sinkLock.Acquire()
	defer sinkLock.Release()

	outputSink = w
	if w != nil {
		_, _ = io.Copy(w, &earlyPrintBuffer)
	}
}

// Printf formats according to a format specifier and writes to the kernel
// console. It supports the full set of verbs understood by fmt.Printf.
//
// The output of Printf is written to the currently attached output sink. If
// no sink is available, the output is buffered into a ring-buffer and is
// replayed once SetOutputSink is invoked.
func Printf(format string, args ...interface{}) {
	Fprintf(Console, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer. A nil writer selects the kernel console.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	if w == nil {
		w = Console
	}

	_, _ = fmt.Fprintf(w, format, args...)
}

type consoleWriter struct{}

// Write sends p to the active output sink as a single unit.
func (consoleWriter) Write(p []byte) (int, error) {
	sinkLock.Acquire()
	defer sinkLock.Release()

	if outputSink != nil {
		return outputSink.Write(p)
	}

	return earlyPrintBuffer.Write(p)
}
