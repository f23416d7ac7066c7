package domain

import "strings"

// Sanitize maps an arbitrary title to a filesystem-safe identifier by keeping
// ASCII letters and digits only. It never collapses, truncates or de-duplicates,
// so an all-punctuation title yields "" and callers must reject it.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
		}
	}
	return b.String()
}
