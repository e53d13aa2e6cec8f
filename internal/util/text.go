package util

// Truncate shortens s to at most n runes, never splitting a multi-byte
// rune. Feed text is routinely non-ASCII, so byte-index slicing would
// leave invalid UTF-8 at the cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
