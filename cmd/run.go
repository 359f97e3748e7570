package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"icc.tech/scheduled/internal/daemon"
)

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the scheduler daemon in the foreground",
	Long: `Run the scheduler daemon process in the foreground.

The daemon will:
  1. Load configuration from the config file
  2. Initialize logging and metrics
  3. Cold-apply tasks, conditions and events
  4. Start the tick loop and the UDS control server
  5. Handle signals for graceful shutdown (SIGTERM, SIGINT) and
     reconfiguration (SIGHUP)`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

var pidFile string

func init() {
	runCmd.Flags().StringVarP(&pidFile, "pidfile", "p", "",
		"PID file path (overrides config file value)")
}

func runDaemon() error {
	d, err := daemon.New(configFile, socketPath, pidFile)
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}

	if err := d.Start(); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Fprintf(os.Stderr, "scheduled daemon started, config=%s socket=%s\n", configFile, socketPath)

	return d.Run()
}
