package cpu

import (
	"os"
	"testing"
)

func TestHalt(t *testing.T) {
	defer func() {
		exitFn = os.Exit
	}()

	var exitCode = -1
	exitFn = func(code int) {
		exitCode = code
	}

	Halt()

	if exitCode != HaltExitCode {
		t.Fatalf("expected Halt to exit with code %d; got %d", HaltExitCode, exitCode)
	}
}
