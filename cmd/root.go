package cmd

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/crytic/hydrafuzz/logging"
	"github.com/crytic/hydrafuzz/version"
)

// rootCmd represents the root CLI command object which all other commands stem from.
var rootCmd = &cobra.Command{
	Use:     "hydrafuzz",
	Version: version.Version,
	Short:   "An EVM flash-loan economic-exploit fuzzing harness",
	Long:    "hydrafuzz is a coverage-guided EVM fuzzer specialized in finding flash-loan-driven economic exploits",
}

// cmdLogger is the logger that will be used for the cmd package. Every run also keeps its last
// recentLogCapacity lines in memory so a failed run can dump recent context without re-reading a
// log file.
const recentLogCapacity = 256

var recentLogs = logging.NewLogBufferWriter(recentLogCapacity)

var cmdLogger = func() *logging.Logger {
	l := logging.NewLogger(zerolog.InfoLevel, true)
	l.AddWriter(recentLogs, logging.STRUCTURED)
	return l
}()

// Execute provides an exportable function to invoke the CLI.
// Returns an error if one was encountered.
func Execute() error {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	return rootCmd.Execute()
}
