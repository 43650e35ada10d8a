package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/core/services"
)

var queryJSON bool

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Retrieve grounding context for a question",
	Long: `Embeds the question, searches the indexed corpus by cosine similarity
and prints the assembled context block with source attribution.

When nothing relevant is indexed, or the embedding provider is down, the
command prints the no-context sentinel instead of failing.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	contextBlock, results, err := queryService.Context(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		out := map[string]any{
			"context": contextBlock,
			"results": results,
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if contextBlock == services.NoContext {
		cmd.Println("No relevant documents found.")
		return nil
	}

	cmd.Println(contextBlock)
	cmd.Println()
	cmd.Println("Sources:")
	for i, res := range results {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, res.DocumentTitle, res.Similarity)
	}
	return nil
}
