// Package cpu exposes the processor control primitives the rest of the kernel
// depends on. The hosted build runs the kernel as an ordinary process, so
// halting the CPU terminates that process.
package cpu

import "os"

// HaltExitCode is the process exit status reported when the kernel halts.
const HaltExitCode = 3

var (
	// exitFn is mocked by tests.
	exitFn = os.Exit
)

// Halt stops instruction execution. Calls to Halt never return.
func Halt() {
	exitFn(HaltExitCode)
}
