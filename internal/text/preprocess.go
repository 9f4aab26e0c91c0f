package text

import (
	"strings"
	"unicode"
)

// Preprocess lowercases s, drops every character that is not an ASCII letter,
// digit or whitespace, and collapses runs of whitespace to one space.
func Preprocess(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case unicode.IsSpace(r):
			space = true
		}
	}
	return b.String()
}

// Combine joins a listing's title and description the way they are compared.
func Combine(title, description string) string {
	return strings.TrimSpace(title) + ". " + strings.TrimSpace(description)
}

// normalizeForKeywords lowercases s and folds typographic apostrophes so
// "don’t miss" matches "don't miss".
func normalizeForKeywords(s string) string {
	s = strings.ToLower(s)
	return strings.NewReplacer("’", "'", "‘", "'", "`", "'").Replace(s)
}

func snippet(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
