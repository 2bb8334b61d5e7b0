package extract

import "strings"

// NormalizePhone extracts digits from arbitrary text and normalizes them to
// the +7XXXXXXXXXX form. Accepts 11-digit numbers with a leading 7 or 8 and
// bare 10-digit numbers (missing country code). Returns false on anything
// else.
func NormalizePhone(text string) (string, bool) {
	var b strings.Builder
	for _, r := range text {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 11 && digits[0] == '8':
		digits = "7" + digits[1:]
	case len(digits) == 11 && digits[0] == '7':
	case len(digits) == 10:
		digits = "7" + digits
	default:
		return "", false
	}

	return "+" + digits, true
}
