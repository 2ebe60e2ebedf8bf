package chat

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/kalambet/newsbot/internal/composer"
)

// DefaultTopK is how many passages are retrieved when no limit is configured.
const DefaultTopK = 3

// Service drives one chat exchange end to end: session write, embedding,
// retrieval, prompt composition, generation, and audit.
//
// Collaborator calls fall into two classes. Embedding and generation are
// pipeline-critical: their failure aborts the request. Session and audit
// writes are best-effort bookkeeping: their failure is logged and swallowed,
// never surfacing to the caller. Retrieval degrades to an empty context via
// the Retriever contract itself.
type Service struct {
	sessions  SessionStore
	embedder  Embedder
	retriever Retriever
	generator Generator
	audit     AuditLog
	topK      int
	logger    *slog.Logger
	now       func() time.Time
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	// TopK is the number of passages requested per retrieval. Default 3.
	TopK int

	// Logger receives best-effort failure and diagnostic output.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// NewService creates a Service wired to all five collaborators.
func NewService(sessions SessionStore, embedder Embedder, retriever Retriever, generator Generator, audit AuditLog, opts Options) *Service {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		sessions:  sessions,
		embedder:  embedder,
		retriever: retriever,
		generator: generator,
		audit:     audit,
		topK:      topK,
		logger:    logger,
		now:       time.Now,
	}
}

// Answer runs the pipeline for one (sessionID, message) pair and returns
// the generated answer.
//
// The user turn is recorded before any remote inference call, so a crash
// mid-pipeline never silently drops the fact that the user asked something.
func (s *Service) Answer(ctx context.Context, sessionID, message string) (string, error) {
	if sessionID == "" {
		return "", &ValidationError{Field: "sessionId"}
	}
	if message == "" {
		return "", &ValidationError{Field: "message"}
	}

	s.appendTurn(ctx, sessionID, Turn{
		Role:      RoleUser,
		Content:   message,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})

	vector, err := s.embedder.Embed(ctx, message)
	if err != nil {
		// Answering without any representation of the question would be a
		// different quality class of answer; abort rather than degrade.
		return "", asPipelineError("embedding", err)
	}

	passages := s.retriever.Search(ctx, vector, s.topK)
	if len(passages) == 0 {
		s.logger.Debug("no context retrieved, answering ungrounded", "sessionId", sessionID)
	}
	contexts := make([]string, len(passages))
	for i, p := range passages {
		contexts[i] = p.Content
	}

	prompt := composer.Compose(contexts, message)

	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", asPipelineError("generation", err)
	}

	s.appendTurn(ctx, sessionID, Turn{
		Role:      RoleAssistant,
		Content:   answer,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})

	if err := s.audit.Append(ctx, sessionID, message, answer); err != nil {
		// The answer is already computed and the user is waiting; audit
		// durability never blocks the response.
		s.logger.Warn("audit append failed", "sessionId", sessionID, "error", err)
	}

	return answer, nil
}

// appendTurn writes a turn to the session store, logging failure without
// propagating it. Session memory is an enhancement, not a correctness
// requirement for answering.
func (s *Service) appendTurn(ctx context.Context, sessionID string, turn Turn) {
	if err := s.sessions.AppendTurn(ctx, sessionID, turn); err != nil {
		s.logger.Warn("session append failed", "sessionId", sessionID, "role", turn.Role, "error", err)
	}
}

// asPipelineError passes through already-typed pipeline errors and wraps
// everything else (including timeouts) as an UpstreamError for op.
func asPipelineError(op string, err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	var me *MalformedResponseError
	if errors.As(err, &me) {
		return err
	}
	return &UpstreamError{Op: op, Err: err}
}
