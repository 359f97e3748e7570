// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/command"
)

// reloadCmd represents the reload command.
var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Hot-reload the scheduler configuration",
	Long: `Reload the scheduler's configuration tree.

This command sends a reconfigure request to the running daemon via Unix
Domain Socket. The daemon re-reads its config file and diffs-and-patches
the task, condition and event registries in place (spec.md §4.5) without
restarting.`,
	Run: func(cmd *cobra.Command, args []string) {
		runReloadCommand()
	},
}

func runReloadCommand() {
	client := command.NewUDSClient(socketPath, 10*time.Second)
	ctx := context.Background()

	fmt.Println("Sending reconfigure request to daemon...")
	resp, err := client.Reconfigure(ctx)
	if err != nil {
		exitWithError("failed to send reconfigure command", err)
	}

	if resp.Error != nil {
		exitWithError(fmt.Sprintf("reconfigure failed: %s", resp.Error.Message), nil)
	}

	fmt.Println("Configuration reloaded successfully.")
}
