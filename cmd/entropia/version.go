package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/entropia"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of entropia",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "entropia version %s\n", strings.TrimSpace(entropia.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
