package chat

import "context"

// Roles recorded in session turns.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message in a session's conversation log.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"` // RFC 3339
}

// Passage is a retrieved context fragment with its similarity score.
// Request-scoped; never persisted.
type Passage struct {
	Content string
	Score   float32
}

// SessionStore persists per-session conversation turns, newest first.
// Implementations must refresh the session's expiration on every append
// so active conversations never expire mid-use.
type SessionStore interface {
	AppendTurn(ctx context.Context, sessionID string, turn Turn) error
}

// Embedder converts text into a fixed-length embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Retriever returns the top-K stored passages most similar to the given
// vector, in descending score order as ranked by the index. Failures are
// absorbed by the implementation and reported as an empty result, so
// callers handle exactly one degraded case: no context.
type Retriever interface {
	Search(ctx context.Context, vector []float32, limit int) []Passage
}

// Generator produces a completion for an assembled prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// AuditLog appends one durable record per completed exchange.
type AuditLog interface {
	Append(ctx context.Context, sessionID, question, answer string) error
}
