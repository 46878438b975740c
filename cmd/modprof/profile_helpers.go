package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"modprof/internal/prof"
)

// setupProfiling inspects the persistent self-profiling flags and starts the
// requested profilers. The returned cleanup is safe to call when nothing was
// started.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()

	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}

	if cpuProfile == "" && memProfile == "" {
		return func() {}, nil
	}

	run, err := prof.Start(cpuProfile, memProfile)
	if err != nil {
		return nil, err
	}
	return func() {
		if err := run.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to stop profiling: %v\n", err)
		}
	}, nil
}
