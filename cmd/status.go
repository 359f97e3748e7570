// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/command"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show scheduler status",
	Long: `Query the scheduler daemon for its overall status.

Shows: uptime, per-condition type and busy state, registered event names,
and the current busy-condition count.`,
	Run: func(cmd *cobra.Command, args []string) {
		runStatusCommand()
	},
}

func runStatusCommand() {
	client := command.NewUDSClient(socketPath, 10*time.Second)
	ctx := context.Background()

	if err := client.Ping(ctx); err != nil {
		exitWithError("daemon is not running or socket is inaccessible", err)
	}

	resp, err := client.Status(ctx)
	if err != nil {
		exitWithError("failed to query status", err)
	}

	if resp.Error != nil {
		exitWithError(fmt.Sprintf("status failed: %s", resp.Error.Message), nil)
	}

	resultJSON, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		exitWithError("failed to format result", err)
	}

	fmt.Println(string(resultJSON))
}
