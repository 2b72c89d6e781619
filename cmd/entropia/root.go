package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/entropia/internal/cli"
	"github.com/aretw0/entropia/pkg/runner"
)

var rootCmd = &cobra.Command{
	Use:   "entropia",
	Short: "Entropia evolves and analyzes discrete-time Markov chains",
	Long: `Entropia steps probability distributions through built-in Markov chains,
maps their reachable state space, checks for steady states and persists histories
as snapshots.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := runner.SignalContext(context.Background())
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the configuration")
	rootCmd.SilenceErrors = true
}

// withApp builds the application from the persistent flags, serves metrics if
// configured, and runs fn.
func withApp(fn func(cmd *cobra.Command, args []string, app *cli.App) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		logLevel, _ := cmd.Flags().GetString("log-level")
		app, err := cli.NewApp(configPath, logLevel, cmd.OutOrStdout(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		stopMetrics, err := app.ServeMetrics()
		if err != nil {
			return err
		}
		defer stopMetrics()
		return fn(cmd, args, app)
	}
}

func addModelFlags(cmd *cobra.Command) {
	cmd.Flags().String("model", cli.ModelWalk, "Built-in model (gambler, ring, walk)")
	cmd.Flags().Int("size", 8, "Number of positions of the ring and gambler models")
}

func modelFlags(cmd *cobra.Command) cli.ModelOptions {
	name, _ := cmd.Flags().GetString("model")
	size, _ := cmd.Flags().GetInt("size")
	return cli.ModelOptions{Name: name, Size: size}
}
