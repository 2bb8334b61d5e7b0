package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	millionRe  = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:млн|миллион|лям|кк)`)
	thousandRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:тыс|т\.\s?р)`)
	plainNumRe = regexp.MustCompile(`\d{1,3}(?:[ .]\d{3}){1,3}|\d{5,9}`)
)

// Plausibility window for bare numbers without a magnitude word. Anything
// outside it is more likely a model year, engine power or phone fragment.
const (
	budgetMin = 500_000
	budgetMax = 30_000_000
)

var budgetSkipWords = []string{
	"не знаю", "неважно", "не важно", "любой", "любая",
	"без разницы", "пропусти", "далее", "потом", "все равно",
}

// ParseBudget extracts a ruble amount from free text. Magnitude words
// («млн», «кк» for millions, «тыс» for thousands) accept a decimal comma or
// point; bare numbers are accepted only within a plausibility window.
func ParseBudget(text string) (int, bool) {
	lower := normalizeText(text)

	if m := millionRe.FindStringSubmatch(lower); m != nil {
		if val, err := parseDecimal(m[1]); err == nil {
			return int(val * 1_000_000), true
		}
	}

	if m := thousandRe.FindStringSubmatch(lower); m != nil {
		if val, err := parseDecimal(m[1]); err == nil {
			return int(val * 1_000), true
		}
	}

	for _, m := range plainNumRe.FindAllString(lower, -1) {
		clean := strings.NewReplacer(" ", "", ".", "").Replace(m)
		num, err := strconv.Atoi(clean)
		if err != nil {
			continue
		}
		if num >= budgetMin && num <= budgetMax {
			return num, true
		}
	}

	return 0, false
}

// IsBudgetSkip reports whether the user declined to name a budget
// («не знаю», «любой» and similar).
func IsBudgetSkip(text string) bool {
	lower := normalizeText(text)
	for _, kw := range budgetSkipWords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func parseDecimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
}
