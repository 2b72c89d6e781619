package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/entropia/internal/cli"
	"github.com/aretw0/entropia/internal/presentation/tui"
)

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Map the reachable states of a model and check for a steady state",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		limit, _ := cmd.Flags().GetInt("limit")
		iterations, _ := cmd.Flags().GetInt("iterations")
		mermaid, _ := cmd.Flags().GetString("mermaid")
		pretty := tui.IsTerminal(os.Stdout)
		if cmd.Flags().Changed("pretty") {
			pretty, _ = cmd.Flags().GetBool("pretty")
		}
		_, err := cli.RunExplore(cmd.Context(), app, cli.ExploreOptions{
			Model:      modelFlags(cmd),
			Limit:      limit,
			Iterations: iterations,
			Mermaid:    mermaid,
			Pretty:     pretty,
		})
		return err
	}),
}

func init() {
	rootCmd.AddCommand(exploreCmd)

	addModelFlags(exploreCmd)
	exploreCmd.Flags().Int("limit", 0, "Maximum number of expanded states (0 uses the configuration)")
	exploreCmd.Flags().Int("iterations", 100, "Iteration budget of the steady-state checks")
	exploreCmd.Flags().String("mermaid", "", "Write the graph as a Mermaid flowchart to this file (- for stdout)")
	exploreCmd.Flags().Bool("pretty", false, "Render the report as styled markdown (default: when stdout is a terminal)")
}
