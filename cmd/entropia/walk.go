package main

import (
	"github.com/spf13/cobra"

	"github.com/aretw0/entropia/internal/cli"
)

var walkCmd = &cobra.Command{
	Use:   "walk",
	Short: "Evolve a model and print every step",
	Long:  `Steps the distribution of a built-in model and prints one line (text) or one JSON object per frame.`,
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		return cli.RunWalk(cmd.Context(), app, walkFlags(cmd))
	}),
}

func addWalkFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", cli.FormatText, "Output format (text, json)")
	cmd.Flags().Int("top", 3, "Heaviest states shown per text line")
	cmd.Flags().Uint64("every", 1, "Print only every n-th step")
	cmd.Flags().Bool("masses", false, "Include the full distribution in JSON output")
}

func walkFlags(cmd *cobra.Command) cli.WalkOptions {
	format, _ := cmd.Flags().GetString("format")
	top, _ := cmd.Flags().GetInt("top")
	every, _ := cmd.Flags().GetUint64("every")
	masses, _ := cmd.Flags().GetBool("masses")
	steps, _ := cmd.Flags().GetInt("steps")
	return cli.WalkOptions{
		Model:  modelFlags(cmd),
		Steps:  steps,
		Format: format,
		Top:    top,
		Every:  every,
		Masses: masses,
	}
}

func init() {
	rootCmd.AddCommand(walkCmd)

	addModelFlags(walkCmd)
	addWalkFlags(walkCmd)
	walkCmd.Flags().Int("steps", 10, "Number of steps; 0 runs until interrupted")
}
