// Package retrieval provides similarity search over the Qdrant news index.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kalambet/newsbot/internal/chat"
)

const (
	payloadContentKey = "content"
	payloadSourceKey  = "source"

	defaultTimeout = 10 * time.Second
)

// pointsClient is the subset of the Qdrant client the Index depends on.
type pointsClient interface {
	Query(ctx context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
	Upsert(ctx context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
}

// Index is a client for one named Qdrant collection holding news passages.
type Index struct {
	client     *qdrant.Client
	points     pointsClient
	collection string
	vectorSize uint64
	timeout    time.Duration
	logger     *slog.Logger
}

// Config configures the Qdrant index client.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string

	// VectorSize is the embedding dimensionality the collection is created
	// with. A mismatch with the embedding provider is a fatal configuration
	// error, caught at collection creation, never per-request.
	VectorSize uint64

	Timeout time.Duration // per-call; defaults to 10s
	Logger  *slog.Logger
}

// New connects to Qdrant and returns an Index for cfg.Collection.
func New(cfg Config) (*Index, error) {
	qc, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to qdrant: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Index{
		client:     qc,
		points:     qc,
		collection: cfg.Collection,
		vectorSize: cfg.VectorSize,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// EnsureCollection creates the collection with the configured vector size
// and cosine distance if it does not exist yet. Idempotent; called once at
// startup, out of the request hot path.
func (x *Index) EnsureCollection(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	exists, err := x.client.CollectionExists(ctx, x.collection)
	if err != nil {
		return fmt.Errorf("checking collection %s: %w", x.collection, err)
	}
	if exists {
		return nil
	}

	err = x.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: x.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     x.vectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("creating collection %s: %w", x.collection, err)
	}
	return nil
}

// Search returns up to limit passages most similar to vector, in the
// index's descending score order.
//
// Retrieval is a quality enhancement: on any failure the error is logged
// here at the boundary and an empty result is returned, so the caller has
// a single "no context" case to handle. Points without a usable content
// payload are skipped for the same reason.
func (x *Index) Search(ctx context.Context, vector []float32, limit int) []chat.Passage {
	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	points, err := x.points.Query(ctx, &qdrant.QueryPoints{
		CollectionName: x.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		x.logger.Error("qdrant search failed", "collection", x.collection, "error", err)
		return nil
	}

	passages := make([]chat.Passage, 0, len(points))
	for _, p := range points {
		content := p.GetPayload()[payloadContentKey].GetStringValue()
		if content == "" {
			x.logger.Warn("skipping point without content payload", "collection", x.collection)
			continue
		}
		passages = append(passages, chat.Passage{
			Content: content,
			Score:   p.GetScore(),
		})
	}
	return passages
}

// Document is one passage to store in the index.
type Document struct {
	ID      string // UUID
	Content string
	Source  string
	Vector  []float32
}

// Upsert writes documents into the collection, waiting for the write to be
// applied.
func (x *Index) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	points := make([]*qdrant.PointStruct, len(docs))
	for i, d := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(d.ID),
			Vectors: qdrant.NewVectors(d.Vector...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadContentKey: d.Content,
				payloadSourceKey:  d.Source,
			}),
		}
	}

	_, err := x.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: x.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting %d points into %s: %w", len(docs), x.collection, err)
	}
	return nil
}

// Ping reports whether the Qdrant server is reachable.
func (x *Index) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_, err := x.client.HealthCheck(ctx)
	return err == nil
}
