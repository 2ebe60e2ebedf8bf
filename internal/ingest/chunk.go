package ingest

import (
	"strings"
	"unicode/utf8"
)

// maxChunkLen caps a single chunk's size in bytes. Keeping chunks small
// keeps retrieval granular and embedding requests cheap.
const maxChunkLen = 1500

// splitChunks splits text into paragraph chunks: blank-line-separated
// blocks, merged while they fit under maxChunkLen, with oversized blocks
// split on the cap boundary.
func splitChunks(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var chunks []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		for len(block) > maxChunkLen {
			// Never cut inside a multi-byte rune: back off to the nearest
			// rune start so every chunk stays valid UTF-8.
			cut := maxChunkLen
			for cut > 0 && !utf8.RuneStart(block[cut]) {
				cut--
			}
			if cut == 0 {
				cut = maxChunkLen
			}
			flush()
			chunks = append(chunks, strings.TrimSpace(block[:cut]))
			block = strings.TrimSpace(block[cut:])
		}
		if block == "" {
			continue
		}

		if current.Len() > 0 && current.Len()+len(block)+1 > maxChunkLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(block)
	}
	flush()

	return chunks
}
