package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cowos/kernel/mm"
	"cowos/kernel/mm/cow"
	"cowos/kernel/mm/pmm"
)

func init() {
	rootCmd.AddCommand(newScenarioCmd())
}

func newScenarioCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenario",
		Short: "Replay the exhaustion and copy-on-write scenarios",
		Long: `The scenario command boots a machine with exactly four managed
frames and walks through two scenarios, checking the allocator state after
every step:

  exhaustion     allocate every frame, hit out-of-memory, free one frame
                 and allocate again
  copy-on-write  share a frame, query it the way a write fault would, then
                 drop both references

Example:
  cowsim scenario`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenarios()
		},
	}
}

// scenarioStep prints a step description and fails if the observed value
// does not match the expected one.
func scenarioStep(desc string, got, exp int) error {
	printer.Fprintf(os.Stdout, "  %-44s %d\n", desc, got)
	if got != exp {
		return fmt.Errorf("%s: expected %d; got %d", desc, exp, got)
	}
	return nil
}

func runScenarios() error {
	base := mm.RoundUp(uintptr(kernelEnd))
	cfg := pmm.Config{KernelEnd: uintptr(kernelEnd), PhysTop: base + 4*mm.PageSize}

	for _, scenario := range []struct {
		name string
		run  func(*machine) error
	}{
		{"exhaustion", runExhaustionScenario},
		{"copy-on-write", runCopyOnWriteScenario},
	} {
		fmt.Fprintf(os.Stdout, "%s:\n", scenario.name)

		m, err := bootMachine(cfg)
		if err != nil {
			return err
		}

		err = scenario.run(m)
		m.shutdown()
		if err != nil {
			return err
		}
	}

	return nil
}

func runExhaustionScenario(m *machine) error {
	if err := scenarioStep("free frames after boot", m.alloc.Stats().FreeFrames, 4); err != nil {
		return err
	}

	var frames []mm.Frame
	for i := 0; i < 4; i++ {
		f, err := mm.AllocFrame()
		if err != nil {
			return err
		}
		frames = append(frames, f)
	}
	if err := scenarioStep("free frames after 4 allocations", m.alloc.Stats().FreeFrames, 0); err != nil {
		return err
	}

	oom := 0
	if _, err := mm.AllocFrame(); err != nil {
		oom = 1
	}
	if err := scenarioStep("5th allocation reports out of memory", oom, 1); err != nil {
		return err
	}

	mm.FreeFrame(frames[0])
	if err := scenarioStep("free frames after releasing one", m.alloc.Stats().FreeFrames, 1); err != nil {
		return err
	}

	f, err := mm.AllocFrame()
	if err != nil {
		return err
	}
	if err := scenarioStep("reallocated the released frame", boolToInt(f == frames[0]), 1); err != nil {
		return err
	}

	cow.ReleaseFrames(append(frames[1:], f))
	return scenarioStep("free frames after teardown", m.alloc.Stats().FreeFrames, 4)
}

func runCopyOnWriteScenario(m *machine) error {
	f, err := mm.AllocFrame()
	if err != nil {
		return err
	}
	if err := scenarioStep("reference count after allocation", mm.FrameRefCount(f), 1); err != nil {
		return err
	}

	cow.DuplicateFrames([]mm.Frame{f})
	if err := scenarioStep("reference count after share (write copies)", mm.FrameRefCount(f), 2); err != nil {
		return err
	}

	mm.FreeFrame(f)
	if err := scenarioStep("reference count after first free", mm.FrameRefCount(f), 1); err != nil {
		return err
	}
	if err := scenarioStep("free frames while still owned", m.alloc.Stats().FreeFrames, 3); err != nil {
		return err
	}

	mm.FreeFrame(f)
	if err := scenarioStep("reference count after second free", mm.FrameRefCount(f), 0); err != nil {
		return err
	}
	return scenarioStep("free frames after last owner left", m.alloc.Stats().FreeFrames, 4)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
