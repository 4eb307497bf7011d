/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"runtime"

	"github.com/alejoacosta74/thalex-api/pkg/thalex"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X .../cmd.Version=... -X .../cmd.Commit=..."
var (
	Version = "dev"
	Commit  = "none"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	// no config needed
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "thalex %s (commit %s, %s, user agent %s)\n",
			Version, Commit, runtime.Version(), thalex.DefaultUserAgent)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
