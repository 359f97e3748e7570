// Package cmd implements CLI commands.
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/command"
)

var resumeWait bool

var resumeCmd = &cobra.Command{
	Use:   "resume <condition-name>",
	Short: "Resume a suspended condition",
	Long: `Resume a suspended condition, re-enrolling it into the scheduler's
tick loop. With --wait, blocks until any in-flight tick finishes before
resuming rather than failing if the condition is currently busy.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runResumeCommand(args[0])
	},
}

func init() {
	resumeCmd.Flags().BoolVarP(&resumeWait, "wait", "w", false,
		"wait for an in-flight tick to finish instead of failing if busy")
}

func runResumeCommand(name string) {
	client := command.NewUDSClient(socketPath, 10*time.Second)
	ctx := context.Background()

	resp, err := client.Resume(ctx, name, resumeWait)
	if err != nil {
		exitWithError("failed to send resume command", err)
	}
	if resp.Error != nil {
		exitWithError(fmt.Sprintf("resume failed: %s", resp.Error.Message), nil)
	}

	fmt.Printf("condition %q resumed\n", name)
}
