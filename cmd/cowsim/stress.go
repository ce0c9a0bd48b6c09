package main

import (
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"cowos/kernel/kfmt"
	"cowos/kernel/mm"
	"cowos/kernel/mm/cow"
)

var (
	stressWorkers    int
	stressIterations int
	stressMaxOwned   int
	stressSeed       int64
)

func init() {
	cmd := newStressCmd()
	cmd.Flags().IntVar(&stressWorkers, "workers", 8, "Number of concurrent workers")
	cmd.Flags().IntVar(&stressIterations, "iterations", 100000, "Operations performed by each worker")
	cmd.Flags().IntVar(&stressMaxOwned, "max-owned", 256, "Maximum references held by a worker at any time")
	cmd.Flags().Int64Var(&stressSeed, "seed", 1, "Seed for the per-worker operation mix")
	rootCmd.AddCommand(cmd)
}

func newStressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stress",
		Short: "Run concurrent allocate/share/free traffic and verify the allocator",
		Long: `The stress command boots the configured machine and starts a set of
workers that allocate, share, write-fault and free frames at random. Once the
workers have released every reference they hold, the free list must contain
every managed frame again.

Example:
  cowsim stress --workers 16 --iterations 500000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStress()
		},
	}
}

// workerResult summarizes the operations performed by one stress worker.
type workerResult struct {
	allocs, shares, frees, faults, oom int
}

func runStress() error {
	if stressWorkers <= 0 || stressIterations <= 0 || stressMaxOwned <= 0 {
		return fmt.Errorf("workers, iterations and max-owned must be positive")
	}

	m, err := bootMachine(configFromFlags())
	if err != nil {
		return err
	}
	defer m.shutdown()

	var (
		wg      sync.WaitGroup
		results = make([]workerResult, stressWorkers)
		start   = time.Now()
	)

	wg.Add(stressWorkers)
	for w := 0; w < stressWorkers; w++ {
		go func(w int) {
			defer wg.Done()
			results[w] = stressWorker(rand.New(rand.NewSource(stressSeed + int64(w))))
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	var total workerResult
	for _, r := range results {
		total.allocs += r.allocs
		total.shares += r.shares
		total.frees += r.frees
		total.faults += r.faults
		total.oom += r.oom
	}

	stats := m.alloc.Stats()
	ops := total.allocs + total.shares + total.frees + total.faults + total.oom
	kfmt.Log.Info().
		Int("workers", stressWorkers).
		Int("ops", ops).
		Dur("elapsed", elapsed).
		Msg("stress: workers finished")

	printer.Fprintf(os.Stdout, "operations     %d in %v (%d ops/s)\n", ops, elapsed.Round(time.Millisecond), int(float64(ops)/elapsed.Seconds()))
	printer.Fprintf(os.Stdout, "allocations    %d (out of memory: %d)\n", total.allocs, total.oom)
	printer.Fprintf(os.Stdout, "shares         %d\n", total.shares)
	printer.Fprintf(os.Stdout, "write faults   %d\n", total.faults)
	printer.Fprintf(os.Stdout, "frees          %d\n", total.frees)
	printer.Fprintf(os.Stdout, "free frames    %d / %d\n", stats.FreeFrames, stats.TotalFrames)

	if stats.FreeFrames != stats.TotalFrames {
		return fmt.Errorf("free list holds %d frames after all owners left; expected %d", stats.FreeFrames, stats.TotalFrames)
	}
	if exp := stats.Allocations + uint64(stats.TotalFrames); stats.Releases != exp {
		return fmt.Errorf("recorded %d releases; expected %d", stats.Releases, exp)
	}

	return nil
}

// stressWorker performs stressIterations random operations and then drops
// every reference it still holds.
func stressWorker(rng *rand.Rand) workerResult {
	var (
		res   workerResult
		owned []mm.Frame
	)

	for i := 0; i < stressIterations; i++ {
		switch op := rng.Intn(4); {
		case op == 0 || len(owned) == 0:
			f, err := mm.AllocFrame()
			if err != nil {
				res.oom++
				continue
			}
			res.allocs++
			owned = append(owned, f)
		case op == 1 && len(owned) < stressMaxOwned:
			f := owned[rng.Intn(len(owned))]
			cow.DuplicateFrames([]mm.Frame{f})
			res.shares++
			owned = append(owned, f)
		case op == 2:
			idx := rng.Intn(len(owned))
			f, err := cow.ResolveWriteFault(owned[idx])
			if err != nil {
				res.oom++
				continue
			}
			res.faults++
			owned[idx] = f
		default:
			idx := rng.Intn(len(owned))
			mm.FreeFrame(owned[idx])
			res.frees++
			owned[idx] = owned[len(owned)-1]
			owned = owned[:len(owned)-1]
		}
	}

	cow.ReleaseFrames(owned)
	res.frees += len(owned)
	return res
}
