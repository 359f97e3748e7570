// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/command"
)

var triggerCmd = &cobra.Command{
	Use:   "trigger <event-name>",
	Short: "Fire a triggerable event by name",
	Long: `Fire a triggerable event by name, inserting its assigned condition
into the execution bucket for the next tick (spec.md §4.4).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runTriggerCommand(args[0])
	},
}

func runTriggerCommand(name string) {
	client := command.NewUDSClient(socketPath, 10*time.Second)
	ctx := context.Background()

	resp, err := client.Trigger(ctx, name)
	if err != nil {
		exitWithError("failed to send trigger command", err)
	}
	if resp.Error != nil {
		exitWithError(fmt.Sprintf("trigger failed: %s", resp.Error.Message), nil)
	}

	fmt.Printf("event %q triggered\n", name)
}
