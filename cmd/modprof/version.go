package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modprof/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show modprof build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return err
	},
}
