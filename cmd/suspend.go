// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/command"
)

var suspendWait bool

var suspendCmd = &cobra.Command{
	Use:   "suspend <condition-name>",
	Short: "Suspend a condition",
	Long: `Suspend a condition, so the scheduler's tick loop skips it entirely
until resumed. With --wait, blocks until any in-flight tick finishes
before suspending rather than failing if the condition is currently busy.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSuspendCommand(args[0])
	},
}

func init() {
	suspendCmd.Flags().BoolVarP(&suspendWait, "wait", "w", false,
		"wait for an in-flight tick to finish instead of failing if busy")
}

func runSuspendCommand(name string) {
	client := command.NewUDSClient(socketPath, 10*time.Second)
	ctx := context.Background()

	resp, err := client.Suspend(ctx, name, suspendWait)
	if err != nil {
		exitWithError("failed to send suspend command", err)
	}
	if resp.Error != nil {
		exitWithError(fmt.Sprintf("suspend failed: %s", resp.Error.Message), nil)
	}

	fmt.Printf("condition %q suspended\n", name)
}
