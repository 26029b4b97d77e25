package report

import "strings"

// AssembleTranscript joins word-level transcript entries into display text.
// Whisper word tokens may carry leading whitespace; normalization collapses it.
func AssembleTranscript(words []Word) string {
	if len(words) == 0 {
		return ""
	}

	parts := make([]string, 0, len(words))
	for _, w := range words {
		trimmed := strings.TrimSpace(w.Word)
		if trimmed == "" {
			continue
		}
		parts = append(parts, trimmed)
	}

	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}
