package llm

import (
	"strings"
)

// CleanJSON strips Markdown code-fence wrappers the model sometimes emits
// despite instructions, and trims any stray text around the outermost JSON
// array or object.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	// Keep only the outermost JSON value if junk remains around it.
	if trimmed, ok := sliceOutermost(s, '[', ']'); ok {
		return trimmed
	}
	if trimmed, ok := sliceOutermost(s, '{', '}'); ok {
		return trimmed
	}
	return s
}

func sliceOutermost(s string, open, close byte) (string, bool) {
	start := strings.IndexByte(s, open)
	if start == -1 {
		return "", false
	}
	end := strings.LastIndexByte(s, close)
	if end <= start {
		return "", false
	}
	return strings.TrimSpace(s[start : end+1]), true
}
