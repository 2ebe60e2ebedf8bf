// Package ingest populates the news index from local files.
package ingest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/kalambet/newsbot/internal/retrieval"
)

// embedConcurrency bounds parallel embedding calls so the provider is not
// overwhelmed.
const embedConcurrency = 4

// Embedder generates embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorUpserter writes documents into the vector index.
type VectorUpserter interface {
	Upsert(ctx context.Context, docs []retrieval.Document) error
}

// Indexer reads source files, chunks them, embeds the chunks, and upserts
// them into the index. Unlike the chat pipeline, indexing does not degrade:
// a failed embed or upsert fails the run, since silently indexing half a
// corpus is worse than failing loudly.
type Indexer struct {
	embedder Embedder
	index    VectorUpserter
	logger   *slog.Logger
}

// NewIndexer creates an Indexer with the given dependencies.
func NewIndexer(embedder Embedder, index VectorUpserter, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Indexer{embedder: embedder, index: index, logger: logger}
}

// IndexFiles ingests each path (.txt, .md, or .pdf) and returns the total
// number of chunks written.
func (ix *Indexer) IndexFiles(ctx context.Context, paths []string) (int, error) {
	total := 0
	for _, path := range paths {
		n, err := ix.indexFile(ctx, path)
		if err != nil {
			return total, fmt.Errorf("indexing %s: %w", path, err)
		}
		ix.logger.Info("indexed file", "path", path, "chunks", n)
		total += n
	}
	return total, nil
}

func (ix *Indexer) indexFile(ctx context.Context, path string) (int, error) {
	text, err := extractText(path)
	if err != nil {
		return 0, err
	}

	chunks := splitChunks(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := ix.embedChunks(ctx, chunks)
	if err != nil {
		return 0, err
	}

	source := filepath.Base(path)
	docs := make([]retrieval.Document, len(chunks))
	for i, chunk := range chunks {
		docs[i] = retrieval.Document{
			ID:      uuid.New().String(),
			Content: chunk,
			Source:  source,
			Vector:  vectors[i],
		}
	}

	if err := ix.index.Upsert(ctx, docs); err != nil {
		return 0, err
	}
	return len(docs), nil
}

// embedChunks embeds all chunks concurrently with bounded parallelism,
// preserving chunk order.
func (ix *Indexer) embedChunks(ctx context.Context, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)

	for i, chunk := range chunks {
		g.Go(func() error {
			vec, err := ix.embedder.Embed(gCtx, chunk)
			if err != nil {
				return fmt.Errorf("embedding chunk %d: %w", i, err)
			}
			vectors[i] = vec
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// extractText reads a source file as plain text. PDFs go through the pdf
// reader; everything else is read verbatim.
func extractText(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		f, r, err := pdf.Open(path)
		if err != nil {
			return "", fmt.Errorf("opening pdf: %w", err)
		}
		defer f.Close()

		reader, err := r.GetPlainText()
		if err != nil {
			return "", fmt.Errorf("extracting pdf text: %w", err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(reader); err != nil {
			return "", fmt.Errorf("reading pdf text: %w", err)
		}
		return buf.String(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
