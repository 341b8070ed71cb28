/*
main.go - Application entry point

PURPOSE:
  The attendance binary. One root command with three subcommands:

    attendance serve                   HTTP API over a sqlite (or in-process) store
    attendance classify -f day.json    Classify one self-contained day
    attendance ledger -f year.yaml     Yearly ledger from a self-contained document

CONFIGURATION:
  serve reads its configuration from the environment (and a .env file, see
  config/config.go). Flags override the environment:

    --port        PORT            HTTP server port (default: 8080)
    --db          DB_PATH         SQLite database path (default: attendance.db)
                                  ":memory:" for an in-memory database,
                                  "memory" for the in-process map store
    --log-level   LOG_LEVEL       logrus level (default: info)

  Other environment variables: LOG_FILE, LOG_JSON, SETTINGS_FILE,
  CATALOG_FILE, METRICS_ENABLED, TIMEZONE.

EXAMPLES:
  # Run with file database
  attendance serve --db ./data/attendance.db

  # Classify a day described in YAML
  attendance classify -f testdata/night-shift.yaml

SEE ALSO:
  - serve.go: Server startup and graceful shutdown
  - offline.go: classify and ledger
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Time and leave accounting engine",
	Long: `attendance classifies worked time from clock punches, decides meal
vouchers and keeps yearly benefit-code balances.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(ledgerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
