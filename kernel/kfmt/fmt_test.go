package kfmt

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withSink attaches a fresh buffer as the console sink for the duration of a
// test and detaches it afterwards.
func withSink(t *testing.T) *bytes.Buffer {
	t.Helper()

	var buf bytes.Buffer
	SetOutputSink(&buf)
	t.Cleanup(func() { SetOutputSink(nil) })
	return &buf
}

func TestPrintf(t *testing.T) {
	specs := []struct {
		format string
		args   []interface{}
		exp    string
	}{
		{"no args", nil, "no args"},
		{"frame %d", []interface{}{42}, "frame 42"},
		{"addr 0x%08x", []interface{}{uintptr(0x80101000)}, "addr 0x80101000"},
		{"%s: %t", []interface{}{"free", true}, "free: true"},
		{"%5d|", []interface{}{7}, "    7|"},
	}

	buf := withSink(t)
	for specIndex, spec := range specs {
		buf.Reset()
		Printf(spec.format, spec.args...)

		if got := buf.String(); got != spec.exp {
			t.Errorf("[spec %d] expected to get %q; got %q", specIndex, spec.exp, got)
		}
	}
}

func TestFprintf(t *testing.T) {
	var buf bytes.Buffer
	Fprintf(&buf, "refcount %d", 3)
	assert.Equal(t, "refcount 3", buf.String())

	// A nil writer selects the console.
	sink := withSink(t)
	Fprintf(nil, "console")
	assert.Equal(t, "console", sink.String())
}

func TestEarlyPrintBufferReplay(t *testing.T) {
	SetOutputSink(nil)
	earlyPrintBuffer.rIndex, earlyPrintBuffer.wIndex = 0, 0

	Printf("boot: %d frames\n", 4)
	require.Equal(t, len("boot: 4 frames\n"), earlyPrintBuffer.Len())

	buf := withSink(t)
	assert.Equal(t, "boot: 4 frames\n", buf.String())
	assert.Zero(t, earlyPrintBuffer.Len())

	Printf("online\n")
	assert.Equal(t, "boot: 4 frames\nonline\n", buf.String())
}

func TestConsoleConcurrentWrites(t *testing.T) {
	buf := withSink(t)

	var (
		wg         sync.WaitGroup
		numWorkers = 8
		lines      = 50
	)

	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < lines; j++ {
				Printf("worker %d line %d\n", worker, j)
			}
		}(i)
	}
	wg.Wait()

	out := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, out, numWorkers*lines)
	for _, line := range out {
		assert.True(t, strings.HasPrefix(line, "worker "), "interleaved line %q", line)
	}
}
