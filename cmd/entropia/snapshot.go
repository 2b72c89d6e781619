package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/entropia/internal/cli"
	"github.com/aretw0/entropia/pkg/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Save, inspect and resume simulation snapshots",
	Long:  `Manage snapshots in the configured store (file, memory or redis).`,
}

var snapshotSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Run a model and save its history",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		steps, _ := cmd.Flags().GetInt("steps")
		id, _ := cmd.Flags().GetString("id")
		explore, _ := cmd.Flags().GetBool("explore")
		out, _ := cmd.Flags().GetString("out")

		saved, err := cli.SaveSnapshot(cmd.Context(), app, cli.SaveOptions{
			Model:   modelFlags(cmd),
			Steps:   steps,
			ID:      id,
			Explore: explore,
			Out:     out,
		})
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote snapshot '%s' to %s\n", saved, out)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved snapshot '%s'\n", saved)
		return nil
	}),
}

var snapshotLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored snapshots",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		ids, err := cli.ListSnapshots(cmd.Context(), app)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No snapshots found.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Snapshots:")
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), "- "+id)
		}
		return nil
	}),
}

var snapshotShowCmd = &cobra.Command{
	Use:   "show <snapshot-id>",
	Short: "Print a stored snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		name, _ := cmd.Flags().GetString("format")
		format, err := snapshot.ParseFormat(name)
		if err != nil {
			return err
		}
		err = cli.ShowSnapshot(cmd.Context(), app, args[0], format)
		if cli.IsNotFound(err) {
			return fmt.Errorf("snapshot '%s' not found", args[0])
		}
		return err
	}),
}

var snapshotRmCmd = &cobra.Command{
	Use:   "rm <snapshot-id>...",
	Short: "Remove one or more snapshots",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		return cli.RemoveSnapshots(cmd.Context(), app, args)
	}),
}

var snapshotResumeCmd = &cobra.Command{
	Use:   "resume <snapshot-id>",
	Short: "Continue a stored simulation and save it back",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(func(cmd *cobra.Command, args []string, app *cli.App) error {
		steps, _ := cmd.Flags().GetInt("steps")
		every, _ := cmd.Flags().GetInt("checkpoint-every")
		return cli.ResumeSnapshot(cmd.Context(), app, cli.ResumeOptions{
			ID:              args[0],
			Steps:           steps,
			CheckpointEvery: every,
			Walk:            walkFlags(cmd),
		})
	}),
}

func init() {
	rootCmd.AddCommand(snapshotCmd)
	snapshotCmd.AddCommand(snapshotSaveCmd, snapshotLsCmd, snapshotShowCmd, snapshotRmCmd, snapshotResumeCmd)

	addModelFlags(snapshotSaveCmd)
	snapshotSaveCmd.Flags().Int("steps", 10, "Number of steps to run before saving")
	snapshotSaveCmd.Flags().String("id", "", "Snapshot ID (defaults to a generated UUID)")
	snapshotSaveCmd.Flags().Bool("explore", false, "Include the reachable graph")
	snapshotSaveCmd.Flags().String("out", "", "Write to this file (.json, .yaml) instead of the store")

	snapshotShowCmd.Flags().String("format", string(snapshot.FormatYAML), "Output format (json, yaml)")

	addWalkFlags(snapshotResumeCmd)
	snapshotResumeCmd.Flags().Int("steps", 10, "Number of additional steps; 0 runs until interrupted")
	snapshotResumeCmd.Flags().Int("checkpoint-every", 0, "Save every n steps as well as at the end")
}
