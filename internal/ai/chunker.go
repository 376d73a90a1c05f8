package ai

import (
	"regexp"
	"strings"
)

// Sentence-level boundaries: western period, exclamation mark, CJK period,
// and newline runs.
var chunkSplitRe = regexp.MustCompile(`[。.!\n]+`)

// GenerateChunks splits normalized text into the non-empty sentence pieces
// that become embedding units. Empty input yields no chunks.
func GenerateChunks(input string) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}
	var chunks []string
	for _, part := range chunkSplitRe.Split(trimmed, -1) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, part)
	}
	return chunks
}
