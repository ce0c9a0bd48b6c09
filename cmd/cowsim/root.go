package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cowos/kernel/kfmt"
)

const (
	// defaultKernelEnd mirrors a kernel image loaded at 0x80000000 that
	// ends just past its first megabyte.
	defaultKernelEnd = 0x80000000 + 1<<20 + 123

	// defaultPhysTop gives the simulated machine 128MB of RAM.
	defaultPhysTop = 0x80000000 + 128<<20
)

var (
	// Global flags
	kernelEnd uint64
	physTop   uint64
	verbose   bool
	logLevel  string

	// printer renders numbers with digit grouping.
	printer = message.NewPrinter(language.English)
)

var rootCmd = &cobra.Command{
	Use:   "cowsim",
	Short: "Run the reference-counted frame allocator on a simulated machine",
	Long: `cowsim boots the kernel physical frame allocator over a simulated
physical address range and lets you inspect it, replay the copy-on-write
scenarios and stress it with concurrent allocate/share/free traffic.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		attachConsole()
	},
}

func init() {
	rootCmd.PersistentFlags().Uint64Var(&kernelEnd, "kernel-end", defaultKernelEnd, "First physical address after the kernel image")
	rootCmd.PersistentFlags().Uint64Var(&physTop, "phys-top", defaultPhysTop, "Upper bound of physical memory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Kernel log level (trace, debug, info, warn, error)")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// attachConsole routes the kernel console to stderr and applies the logging
// flags. Output printed before this point is replayed from the early buffer.
func attachConsole() {
	level := logLevel
	if verbose {
		level = "debug"
	}
	kfmt.SetLogLevel(level)
	kfmt.SetOutputSink(&kfmt.PrefixWriter{Sink: os.Stderr, Prefix: []byte("[cowsim] ")})
}
