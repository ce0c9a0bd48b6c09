package main

import (
	"os"

	"github.com/spf13/cobra"

	"cowos/kernel/mm"
)

func init() {
	rootCmd.AddCommand(newBootCmd())
}

func newBootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "boot",
		Short: "Boot the allocator and print the memory map",
		Long: `The boot command registers every frame between the end of the
kernel image and the top of physical memory and reports the result.

Example:
  cowsim boot
  cowsim boot --kernel-end 0x80021000 --phys-top 0x88000000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoot()
		},
	}
}

func runBoot() error {
	m, err := bootMachine(configFromFlags())
	if err != nil {
		return err
	}
	defer m.shutdown()

	stats := m.alloc.Stats()
	printer.Fprintf(os.Stdout, "managed range  0x%x - 0x%x\n", m.cfg.ManagedStart(), m.cfg.ManagedEnd())
	printer.Fprintf(os.Stdout, "frame size     %d bytes\n", mm.PageSize)
	printer.Fprintf(os.Stdout, "frames         %d\n", stats.TotalFrames)
	printer.Fprintf(os.Stdout, "free frames    %d (%d KiB)\n", stats.FreeFrames, uint64(stats.FreeFrames)*uint64(mm.PageSize)/1024)
	return nil
}
