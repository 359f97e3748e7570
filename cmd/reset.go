// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/command"
)

var resetWait bool

var resetCmd = &cobra.Command{
	Use:   "reset <condition-name>",
	Short: "Reset a condition's retry budget",
	Long: `Reset a condition's left_retries back to its configured
max_retries, and clear its runtime state (last tested/succeeded, success
and tasks-failed flags); its id and suspended flag are kept. With --wait, blocks
until any in-flight tick finishes before resetting rather than failing if
the condition is currently busy.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runResetCommand(args[0])
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetWait, "wait", "w", false,
		"wait for an in-flight tick to finish instead of failing if busy")
}

func runResetCommand(name string) {
	client := command.NewUDSClient(socketPath, 10*time.Second)
	ctx := context.Background()

	resp, err := client.Reset(ctx, name, resetWait)
	if err != nil {
		exitWithError("failed to send reset command", err)
	}
	if resp.Error != nil {
		exitWithError(fmt.Sprintf("reset failed: %s", resp.Error.Message), nil)
	}

	fmt.Printf("condition %q reset\n", name)
}
