package text

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	minDescriptionChars = 50
	maxDescriptionChars = 2000
	tooShortScore       = 0.6
	tooLongScore        = 0.3
)

// LengthScore flags descriptions that are suspiciously short or long.
func LengthScore(description string) (float64, string) {
	d := strings.TrimSpace(description)
	chars := utf8.RuneCountInString(d)
	words := len(strings.Fields(d))

	switch {
	case chars < minDescriptionChars:
		return tooShortScore, fmt.Sprintf(
			"Description is very short (%d characters, %d words), typical of low-effort listings.", chars, words)
	case chars > maxDescriptionChars:
		return tooLongScore, fmt.Sprintf(
			"Description is unusually long (%d characters, %d words) and may be copy-pasted.", chars, words)
	default:
		return 0, fmt.Sprintf("Description length is normal (%d words).", words)
	}
}
