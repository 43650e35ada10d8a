package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk and embed pending documents",
	Long: `Processes every document that has no chunks yet: splits it into
sentence-aligned chunks, embeds each one and stores the vectors. Chunks
stored earlier without an embedding are backfilled.

Individual chunk failures are reported but never abort the run.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	report, err := ingestService.IngestPending(cmd.Context())
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	cmd.Printf("Run %s: %d document(s) processed, %d chunk(s) indexed\n",
		report.RunID, report.DocumentsProcessed, report.ChunksCreated)

	if len(report.Failures) > 0 {
		cmd.Printf("%d chunk(s) failed:\n", len(report.Failures))
		for _, f := range report.Failures {
			cmd.Printf("  document %d chunk %d: %s\n", f.DocumentID, f.ChunkIndex, f.Err)
		}
	}
	return nil
}
