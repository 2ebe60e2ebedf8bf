package chat

import "fmt"

// ValidationError reports a missing or malformed request field. It is
// client-caused and terminal: once raised, no collaborator is invoked.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// UpstreamError reports a failed pipeline-critical remote call (embedding
// or generation), including timeouts. Terminal for the request.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// MalformedResponseError reports a remote dependency returning a payload
// that violates its contract. Handled like UpstreamError at the request
// level but logged distinctly, since it signals a contract break rather
// than a transient fault.
type MalformedResponseError struct {
	Op     string
	Detail string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Op, e.Detail)
}
