// Package session stores per-conversation turn logs in Redis.
//
// Each session is a Redis list keyed by the client-supplied session ID,
// newest turn at the head, with a sliding expiration refreshed on every
// append. Expired sessions disappear wholesale; there is no explicit
// delete path.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kalambet/newsbot/internal/chat"
)

const (
	// DefaultTTL is the idle lifetime of a session (1 day).
	DefaultTTL = 86400 * time.Second

	opTimeout = 5 * time.Second
)

// Store is a Redis-backed session store.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// Open connects to Redis at url (redis:// or rediss://) and returns a Store.
// If ttl <= 0, DefaultTTL is used.
func Open(url string, ttl time.Duration) (*Store, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: redis.NewClient(opt), ttl: ttl}, nil
}

// AppendTurn pushes a turn onto the head of the session's list and resets
// the session's expiration. Both commands run in one pipeline so an active
// conversation never expires between the write and the refresh.
func (s *Store) AppendTurn(ctx context.Context, sessionID string, turn chat.Turn) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("encoding turn: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, sessionID, data)
	pipe.Expire(ctx, sessionID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("appending turn to session %s: %w", sessionID, err)
	}
	return nil
}

// History returns up to limit turns for the session, newest first. An
// unknown or expired session yields an empty slice, not an error. The chat
// pipeline never calls this; it backs the read-only history endpoint.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]chat.Turn, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	entries, err := s.client.LRange(ctx, sessionID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", sessionID, err)
	}

	turns := make([]chat.Turn, 0, len(entries))
	for _, raw := range entries {
		var t chat.Turn
		if err := json.Unmarshal([]byte(raw), &t); err != nil {
			return nil, fmt.Errorf("decoding turn in session %s: %w", sessionID, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

// Ping reports whether the Redis server is reachable.
func (s *Store) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err() == nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
