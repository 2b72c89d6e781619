package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/entropia"
	"github.com/aretw0/entropia/internal/cli"
	"github.com/aretw0/entropia/internal/presentation/tui"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored snapshots over HTTP",
	Long: `Serve exposes the configured snapshot store over HTTP: listing, frames,
Mermaid graphs, stepping and a server-sent event stream per snapshot.`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		addr, _ := cmd.Flags().GetString("addr")
		if tui.IsTerminal(os.Stderr) {
			tui.PrintBanner(os.Stderr, entropia.Version)
		}
		return cli.RunServe(cmd.Context(), app, cli.ServeOptions{Addr: addr})
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "localhost:8080", "Listen address")
}
