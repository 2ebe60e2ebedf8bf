package ingest

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/kalambet/newsbot/internal/retrieval"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []float32{float32(len(text))}, nil
}

type fakeIndex struct {
	mu   sync.Mutex
	docs []retrieval.Document
	err  error
}

func (f *fakeIndex) Upsert(ctx context.Context, docs []retrieval.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.docs = append(f.docs, docs...)
	return nil
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func newTestIndexer(embedder *fakeEmbedder, index *fakeIndex) *Indexer {
	return NewIndexer(embedder, index, slog.New(slog.DiscardHandler))
}

func TestIndexFiles(t *testing.T) {
	path := writeTempFile(t, "news.txt", "Party A won the election.\n\nTurnout was record-high.\n")
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}

	n, err := newTestIndexer(embedder, index).IndexFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("IndexFiles() error = %v", err)
	}
	if n != 1 {
		t.Errorf("chunks = %d, want 1 (paragraphs merge under the cap)", n)
	}
	if len(index.docs) != 1 {
		t.Fatalf("upserted docs = %d, want 1", len(index.docs))
	}

	doc := index.docs[0]
	if doc.Source != "news.txt" {
		t.Errorf("Source = %q, want news.txt", doc.Source)
	}
	if doc.ID == "" || len(doc.Vector) == 0 {
		t.Errorf("doc missing ID or vector: %+v", doc)
	}
	if !strings.Contains(doc.Content, "Party A won the election.") {
		t.Errorf("Content = %q", doc.Content)
	}
}

func TestIndexFiles_EmbedFailureIsFatal(t *testing.T) {
	path := writeTempFile(t, "news.txt", "Some article text.")
	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	index := &fakeIndex{}

	_, err := newTestIndexer(embedder, index).IndexFiles(context.Background(), []string{path})
	if err == nil {
		t.Fatal("IndexFiles() succeeded, want error")
	}
	if len(index.docs) != 0 {
		t.Errorf("docs upserted despite embed failure: %d", len(index.docs))
	}
}

func TestIndexFiles_UpsertFailureIsFatal(t *testing.T) {
	path := writeTempFile(t, "news.txt", "Some article text.")
	embedder := &fakeEmbedder{}
	index := &fakeIndex{err: errors.New("unavailable")}

	_, err := newTestIndexer(embedder, index).IndexFiles(context.Background(), []string{path})
	if err == nil {
		t.Fatal("IndexFiles() succeeded, want error")
	}
}

func TestIndexFiles_EmptyFile(t *testing.T) {
	path := writeTempFile(t, "empty.txt", "\n\n  \n")
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}

	n, err := newTestIndexer(embedder, index).IndexFiles(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("IndexFiles() error = %v", err)
	}
	if n != 0 || embedder.calls != 0 {
		t.Errorf("n = %d, embed calls = %d, want 0 work for empty file", n, embedder.calls)
	}
}

func TestIndexFiles_MissingFile(t *testing.T) {
	embedder := &fakeEmbedder{}
	index := &fakeIndex{}

	_, err := newTestIndexer(embedder, index).IndexFiles(context.Background(), []string{"/does/not/exist.txt"})
	if err == nil {
		t.Fatal("IndexFiles() succeeded for missing file")
	}
}

func TestSplitChunks(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace only", "  \n\n \n", 0},
		{"single paragraph", "one short paragraph", 1},
		{"small paragraphs merge", "first\n\nsecond\n\nthird", 1},
		{"oversized block splits", strings.Repeat("x", maxChunkLen*2+100), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitChunks(tt.text)
			if len(got) != tt.want {
				t.Errorf("len(chunks) = %d, want %d", len(got), tt.want)
			}
			for _, c := range got {
				if len(c) > maxChunkLen {
					t.Errorf("chunk exceeds cap: %d bytes", len(c))
				}
				if strings.TrimSpace(c) == "" {
					t.Error("empty chunk emitted")
				}
			}
		})
	}
}

func TestSplitChunks_NeverSplitsRunes(t *testing.T) {
	// "ab" misaligns the rune grid so the cap lands mid-rune.
	text := "ab" + strings.Repeat("新", 600)

	got := splitChunks(text)
	if len(got) < 2 {
		t.Fatalf("len(chunks) = %d, want >= 2 for oversized block", len(got))
	}
	for i, c := range got {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d (%d bytes) is not valid UTF-8", i, len(c))
		}
		if len(c) > maxChunkLen {
			t.Errorf("chunk %d exceeds cap: %d bytes", i, len(c))
		}
	}
	if n := strings.Count(strings.Join(got, ""), "新"); n != 600 {
		t.Errorf("runes surviving split = %d, want 600", n)
	}
}

func TestSplitChunks_NormalizesCRLF(t *testing.T) {
	got := splitChunks("first line\r\n\r\nsecond line")
	if len(got) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(got))
	}
	if strings.Contains(got[0], "\r") {
		t.Errorf("chunk contains carriage return: %q", got[0])
	}
}
