package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modprof/internal/recorder"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [flags] [marks-file]",
	Short: "Decode a timing-mark dump",
	Long: `Dump decodes the timing marks flushed by a trace session and lists
them in emission order with times relative to the first mark. Without an
argument the configured timer path is read.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDump,
}

func runDump(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		cfg, err := loadProfileConfig(".")
		if err != nil {
			return err
		}
		path = cfg.Trace.TimerPath
	}

	marks, err := recorder.ReadMarks(path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(marks) == 0 {
		_, err := fmt.Fprintln(out, "no timing marks recorded")
		return err
	}

	start := marks[0].At
	for _, m := range marks {
		elapsed := float64(m.At.Sub(start).Microseconds()) / 1000
		if _, err := fmt.Fprintf(out, "[%10.3fms] %s %-12s %s\n", elapsed, m.Phase, m.Scope, m.Label); err != nil {
			return err
		}
	}
	return nil
}
