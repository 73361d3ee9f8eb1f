package review

import "strings"

// trimToLimit cuts content down to at most limit bytes, preferring paragraph
// boundaries and falling back to line boundaries so the prompt never ends
// mid-statement. Returns the content and whether it was cut.
func trimToLimit(content string, limit int) (string, bool) {
	if len(content) <= limit {
		return content, false
	}

	cut := content[:limit]

	// Prefer a paragraph break in the back half of the window.
	if idx := strings.LastIndex(cut, "\n\n"); idx > limit/2 {
		return strings.TrimRight(cut[:idx], "\n"), true
	}
	if idx := strings.LastIndexByte(cut, '\n'); idx > 0 {
		return strings.TrimRight(cut[:idx], "\n"), true
	}
	return cut, true
}
