package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"modprof/internal/parse"
	"modprof/internal/report"
	"modprof/internal/ui"
)

var reportCmd = &cobra.Command{
	Use:   "report [flags] <log|rank>...",
	Short: "Aggregate trace logs into timing reports",
	Long: `Report parses completed trace logs and prints three views per log:
the ordered operation/module rows, per-operation totals with percentages,
and the iteration grand total.

Arguments are log file paths. A bare integer is treated as a rank and
resolved against the configured log directory. With no arguments the
ranks listed in modprof.toml are reported.`,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().Bool("strict-durations", false, "fail on duration samples outside any operation")
	reportCmd.Flags().Bool("substring-match", false, "accept op END names that merely contain the open op name")
	reportCmd.Flags().String("format", "table", "output format (table|csv)")
	reportCmd.Flags().String("ui", "auto", "interactive aggregate browser (auto|on|off)")
}

func runReport(cmd *cobra.Command, args []string) error {
	stopProfiling, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer stopProfiling()

	strict, err := cmd.Flags().GetBool("strict-durations")
	if err != nil {
		return fmt.Errorf("failed to get strict-durations flag: %w", err)
	}
	substring, err := cmd.Flags().GetBool("substring-match")
	if err != nil {
		return fmt.Errorf("failed to get substring-match flag: %w", err)
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}

	cfg, err := loadProfileConfig(".")
	if err != nil {
		return err
	}

	opts := parse.Options{}
	if strict || (!cmd.Flags().Changed("strict-durations") && cfg.Report.StrictDurations) {
		opts.Orphans = parse.OrphanError
	}
	if substring || (!cmd.Flags().Changed("substring-match") && cfg.Report.SubstringMatch) {
		opts.Match = parse.MatchSubstring
	}

	uiMode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	switch format {
	case "table", "csv":
	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	paths, err := resolveLogArgs(cfg, args)
	if err != nil {
		return err
	}

	// One parse per log file; files are independent, so parse concurrently.
	reports := make([]*parse.Report, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			rep, err := parse.ParseFile(path, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			reports[i] = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if format == "table" && len(paths) == 1 && shouldUseTUI(uiMode) {
		model := ui.NewAggregateModel(paths[0], reports[0])
		program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
		_, err := program.Run()
		return err
	}

	headerColor := color.New(color.FgCyan, color.Bold)
	for i, rep := range reports {
		if len(paths) > 1 && !quiet {
			if useColor(cmd, os.Stdout) {
				_, _ = headerColor.Printf("== %s ==\n", paths[i])
			} else {
				fmt.Printf("== %s ==\n", paths[i])
			}
		}
		switch format {
		case "csv":
			err = report.WriteCSV(os.Stdout, rep)
		default:
			err = report.NewRenderer().Render(os.Stdout, rep)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// resolveLogArgs maps command arguments to log file paths. Bare integers are
// rank identifiers resolved against the configured log directory; with no
// arguments the configured rank list is used.
func resolveLogArgs(cfg profileConfig, args []string) ([]string, error) {
	if len(args) == 0 {
		ranks, err := cfg.Trace.ranks()
		if err != nil {
			return nil, err
		}
		if len(ranks) == 0 {
			return nil, fmt.Errorf("no log files given and no ranks configured in %s", configFileName)
		}
		paths := make([]string, len(ranks))
		for i, rank := range ranks {
			paths[i] = rankLogPath(cfg, rank)
		}
		return paths, nil
	}

	paths := make([]string, len(args))
	for i, arg := range args {
		if rank, err := strconv.Atoi(arg); err == nil {
			paths[i] = rankLogPath(cfg, rank)
			continue
		}
		paths[i] = arg
	}
	return paths, nil
}

func rankLogPath(cfg profileConfig, rank int) string {
	return filepath.Join(cfg.Trace.LogDir, strconv.Itoa(rank)+".log")
}
