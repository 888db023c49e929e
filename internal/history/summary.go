package history

import (
	"strings"

	"github.com/silaylearn/silay-api/internal/domain"
)

// Context window limits.
const (
	WindowSize     = 10
	MaxLineRunes   = 120
	NoHistory      = "No previous conversation."
	HistoryFailure = "Error loading context."
)

var newlines = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Summarize renders a newest-first window of messages as "role: text" lines
// in chronological order. Each text is cut to MaxLineRunes before newlines
// are flattened.
func Summarize(newestFirst []domain.ChatMessage) string {
	if len(newestFirst) == 0 {
		return NoHistory
	}
	if len(newestFirst) > WindowSize {
		newestFirst = newestFirst[:WindowSize]
	}

	lines := make([]string, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		m := newestFirst[i]
		lines = append(lines, string(m.Role)+": "+newlines.Replace(truncateRunes(m.Message, MaxLineRunes)))
	}
	return strings.Join(lines, "\n")
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
