package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var docsAddSlug string

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage corpus documents",
}

var docsAddCmd = &cobra.Command{
	Use:   "add [title] [file]",
	Short: "Add a document from a file",
	Long: `Adds a document to the corpus with content read from the given file,
or from stdin when the file argument is "-". The document is indexed on the
next 'kbase ingest' run.`,
	Args: cobra.ExactArgs(2),
	RunE: runDocsAdd,
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	RunE:  runDocsList,
}

var docsRemoveCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Remove a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsRemove,
}

var docsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled sample documents",
	Long: `Loads a small set of sample documents so search can be tried before
adding real content. Documents that already exist are skipped.`,
	RunE: runDocsSeed,
}

func init() {
	docsAddCmd.Flags().StringVar(&docsAddSlug, "slug", "", "override the derived slug")
	docsCmd.AddCommand(docsAddCmd)
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsRemoveCmd)
	docsCmd.AddCommand(docsSeedCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	title, path := args[0], args[1]

	var content []byte
	var err error
	if path == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading content: %w", err)
	}

	doc, err := documentService.Add(cmd.Context(), title, docsAddSlug, string(content))
	if err != nil {
		return fmt.Errorf("adding document: %w", err)
	}

	cmd.Printf("Added document %d (%s). Run 'kbase ingest' to index it.\n", doc.ID, doc.Slug)
	return nil
}

func runDocsList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents.")
		return nil
	}

	for _, doc := range docs {
		cmd.Printf("  [%d] %s (%s) %d bytes\n", doc.ID, doc.Title, doc.Slug, len(doc.Content))
	}
	return nil
}

func runDocsRemove(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[0])
	}

	if err := documentService.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("removing document: %w", err)
	}

	cmd.Printf("Removed document %d\n", id)
	return nil
}

// seedDocuments ship with the binary so a fresh install has something to
// search.
var seedDocuments = []struct {
	title   string
	content string
}{
	{
		title: "Goroutines and Channels",
		content: `Goroutines are lightweight threads managed by the Go runtime. ` +
			`Start one with the go keyword in front of a function call. ` +
			`Channels let goroutines communicate by passing values instead of sharing memory. ` +
			`A send on an unbuffered channel blocks until another goroutine receives from it.`,
	},
	{
		title: "Vector Similarity Search",
		content: `Vector similarity search finds the stored items whose embeddings lie closest to a query embedding. ` +
			`Cosine similarity measures the angle between two vectors and ignores their magnitude. ` +
			`A score near one means the texts are semantically close, while a score near zero means they are unrelated.`,
	},
	{
		title: "Retrieval Augmented Generation",
		content: `Retrieval augmented generation grounds a language model by injecting relevant documents into the prompt. ` +
			`The pipeline chunks source documents, embeds each chunk and stores the vectors. ` +
			`At question time the query is embedded, the nearest chunks are retrieved and assembled into a context block with source attribution.`,
	},
}

func runDocsSeed(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	var added int
	for _, seed := range seedDocuments {
		_, err := documentService.Add(cmd.Context(), seed.title, "", seed.content)
		if err != nil {
			cmd.Printf("Skipping %q: %v\n", seed.title, err)
			continue
		}
		added++
	}

	cmd.Printf("Seeded %d document(s). Run 'kbase ingest' to index them.\n", added)
	return nil
}
