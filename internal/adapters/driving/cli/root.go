// Package cli implements the kbase command-line interface using cobra.
// Services are wired in by main via SetServices; commands only talk to the
// driving ports.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driven"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/ports/driving"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/logger"
)

// Services injected by main before Execute.
var (
	queryService    driving.QueryService
	ingestService   driving.IngestOrchestrator
	documentService driving.DocumentService
	configStore     driven.ConfigStore
)

// Persistent flags.
var (
	flagVerbose bool
	flagDataDir string
)

var rootCmd = &cobra.Command{
	Use:   "kbase",
	Short: "Personal knowledge base with retrieval-augmented search",
	Long: `kbase manages a local corpus of documents, indexes them into vector
embeddings and retrieves grounding context for chat questions.

Typical flow:
  kbase docs add "Go Concurrency" notes.md
  kbase ingest
  kbase query "how do goroutines communicate?"`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		if queryService == nil && initServices != nil {
			return initServices()
		}
		return nil
	},
}

// initServices wires real services on first use, after flags are parsed.
// Tests bypass it with SetServices.
var initServices func() error

// SetInitializer registers the service wiring function run before the first
// command that needs services.
func SetInitializer(fn func() error) {
	initServices = fn
}

// Services bundles everything the commands need.
type Services struct {
	Query    driving.QueryService
	Ingest   driving.IngestOrchestrator
	Document driving.DocumentService
	Config   driven.ConfigStore
}

// SetServices injects the wired services into the command tree.
func SetServices(s Services) {
	queryService = s.Query
	ingestService = s.Ingest
	documentService = s.Document
	configStore = s.Config
}

// DataDir returns the --data-dir flag value.
func DataDir() string {
	return flagDataDir
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override the data directory (default ~/.kbase/data)")
}
