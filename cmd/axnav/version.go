package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/axnav"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of axnav",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "axnav version %s\n", strings.TrimSpace(axnav.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
