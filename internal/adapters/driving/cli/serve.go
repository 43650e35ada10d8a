package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/trander-25/23521801-vuthevinh-lab06/internal/adapters/driving/httpapi"
	"github.com/trander-25/23521801-vuthevinh-lab06/internal/watcher"
)

var (
	serveAddr     string
	serveWatchDir string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the retrieval API over HTTP",
	Long: `Starts an HTTP server exposing POST /api/query behind a per-client
rate limit of 10 requests per minute.

With --watch-dir, .txt and .md files in that directory are synced into the
corpus and re-indexed as they change.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", httpapi.DefaultAddr, "listen address")
	serveCmd.Flags().StringVar(&serveWatchDir, "watch-dir", "", "sync documents from this directory")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)

	server := httpapi.NewServer(queryService, httpapi.WithAddr(serveAddr))
	group.Go(func() error {
		return server.ListenAndServe(ctx)
	})

	if serveWatchDir != "" {
		if documentService == nil || ingestService == nil {
			return errors.New("document and ingest services not configured")
		}
		w := watcher.New(documentService, ingestService)
		group.Go(func() error {
			err := w.Run(ctx, serveWatchDir)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	return group.Wait()
}
