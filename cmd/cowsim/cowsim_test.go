package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cowos/kernel/mm"
)

// withLayout points the global layout flags at a small machine for the
// duration of a test.
func withLayout(t *testing.T, frames int) {
	t.Helper()

	origKernelEnd, origPhysTop := kernelEnd, physTop
	kernelEnd = 0x80000000 + 0x2345
	physTop = uint64(mm.RoundUp(uintptr(kernelEnd))) + uint64(frames)*uint64(mm.PageSize)
	t.Cleanup(func() { kernelEnd, physTop = origKernelEnd, origPhysTop })
}

func TestBootMachine(t *testing.T) {
	withLayout(t, 16)

	m, err := bootMachine(configFromFlags())
	require.NoError(t, err)
	defer m.shutdown()

	stats := m.alloc.Stats()
	assert.Equal(t, 16, stats.TotalFrames)
	assert.Equal(t, 16, stats.FreeFrames)

	f, kerr := mm.AllocFrame()
	require.Nil(t, kerr)
	assert.Equal(t, 1, mm.FrameRefCount(f))
	mm.FreeFrame(f)
}

func TestBootMachineRejectsEmptyLayout(t *testing.T) {
	withLayout(t, 0)

	m, err := bootMachine(configFromFlags())
	assert.Error(t, err)
	assert.Nil(t, m)
}

func TestRunBoot(t *testing.T) {
	withLayout(t, 8)
	require.NoError(t, runBoot())
}

func TestRunScenarios(t *testing.T) {
	withLayout(t, 1)
	require.NoError(t, runScenarios())
}

func TestRunStress(t *testing.T) {
	withLayout(t, 32)

	origWorkers, origIterations, origMaxOwned := stressWorkers, stressIterations, stressMaxOwned
	defer func() {
		stressWorkers, stressIterations, stressMaxOwned = origWorkers, origIterations, origMaxOwned
	}()

	stressWorkers, stressIterations, stressMaxOwned = 4, 2000, 16
	require.NoError(t, runStress())

	stressWorkers = 0
	require.Error(t, runStress())
}
