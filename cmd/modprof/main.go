package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"modprof/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "modprof",
	Short: "Module-tree trace profiler and report tool",
	Long: `modprof aggregates the trace logs produced by an instrumented
module tree into per-operation and per-module timing reports`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var errColor = color.New(color.FgRed, color.Bold)

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().String("cpu-profile", "", "write a cpu profile of this run to file")
	rootCmd.PersistentFlags().String("mem-profile", "", "write a heap profile of this run to file")

	if err := rootCmd.Execute(); err != nil {
		_, _ = errColor.Fprint(os.Stderr, "error: ")
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor resolves the persistent --color tri-state against the stream the
// output goes to.
func useColor(cmd *cobra.Command, f *os.File) bool {
	flag, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	return flag == "on" || (flag == "auto" && isTerminal(f))
}
