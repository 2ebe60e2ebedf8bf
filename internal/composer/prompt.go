// Package composer assembles the generation prompt from retrieved context
// and the user's question.
package composer

import "strings"

// Compose builds the prompt sent to the generation model. Context passages
// appear in retrieval order, newline-joined, with no re-ranking; the
// question is the literal user message. Prior conversation turns are
// deliberately not included.
//
// The template is deterministic: identical inputs always produce an
// identical prompt string.
func Compose(contexts []string, question string) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	sb.WriteString(strings.Join(contexts, "\n"))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(question)
	return sb.String()
}
