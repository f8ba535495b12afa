package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"orthocheck/internal/evidence"
	"orthocheck/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	dbPath    string
	logLevel  string
	logFormat string
}

var rootCmd = &cobra.Command{
	Use:   "orthocheck",
	Short: "Completeness assessment of gene sets against core ortholog groups",
	Long: "Orthocheck scores how complete a predicted gene set is relative to a\n" +
		"curated core set of ortholog groups: it derives per-group score cutoffs\n" +
		"from reference-species comparisons and classifies each group as\n" +
		"complete, partial, missing or duplicated under four score modes.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Setup(rootFlags.logLevel, rootFlags.logFormat)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.dbPath, "db", evidence.DefaultDBPath, "Store DB path")
	pf.StringVar(&rootFlags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&rootFlags.logFormat, "log-format", "text", "Log format (text, json)")

	rootCmd.AddCommand(cutoffCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
