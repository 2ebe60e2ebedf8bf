package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kalambet/newsbot/internal/config"
	"github.com/kalambet/newsbot/internal/embedding"
	"github.com/kalambet/newsbot/internal/ingest"
	"github.com/kalambet/newsbot/internal/retrieval"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Index news articles into the vector collection",
	Long: `Index news articles into the vector collection.

Supported formats: plain text (.txt), Markdown (.md), and PDF (.pdf).
Files are split into paragraph chunks, embedded, and upserted into Qdrant.

Examples:
  newsbot ingest articles/election-night.txt
  newsbot ingest reports/*.pdf`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		index, err := retrieval.New(retrieval.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			VectorSize: uint64(cfg.Qdrant.VectorSize),
		})
		if err != nil {
			return fmt.Errorf("connecting to vector index: %w", err)
		}
		if err := index.EnsureCollection(ctx); err != nil {
			return fmt.Errorf("ensuring collection: %w", err)
		}

		embedder := embedding.New(embedding.Config{
			BaseURL: cfg.Embedding.BaseURL,
			APIKey:  cfg.Embedding.APIKey,
			Model:   cfg.Embedding.Model,
		})

		printStep("Indexing %d file(s) into %q...", len(args), cfg.Qdrant.Collection)
		n, err := ingest.NewIndexer(embedder, index, nil).IndexFiles(ctx, args)
		if err != nil {
			printError("Ingest failed after %d chunk(s): %v", n, err)
			return err
		}

		printSuccess("Indexed %d chunk(s) from %d file(s)", n, len(args))
		return nil
	},
}
