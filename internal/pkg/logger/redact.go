package logger

import (
	"strconv"
	"strings"
)

// RedactQuery masks a raw search query for safe logging, keeping only the
// first word as context.
// "best insulated lunch box" → "best *** (4 terms)"
// Single-word queries are fully masked: "babybento" → "*** (1 term)"
func RedactQuery(query string) string {
	words := strings.Fields(query)
	switch len(words) {
	case 0:
		return ""
	case 1:
		return "*** (1 term)"
	default:
		return words[0] + " *** (" + strconv.Itoa(len(words)) + " terms)"
	}
}
