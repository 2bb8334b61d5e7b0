// Package extract contains pure text extractors used by the dialog layer:
// brand matching, phone normalization, budget parsing and spec keyword
// classification. No network calls, no state.
package extract

import (
	"sort"
	"strings"
	"unicode"
)

// DealerBrands is the set of brands the dealership sells directly. Leads for
// these brands are routed to brand-specific sales groups downstream.
var DealerBrands = map[string]bool{
	"Chery":  true,
	"Jetour": true,
	"Haval":  true,
	"Omoda":  true,
	"Jaecoo": true,
	"Tenet":  true,
}

// brandAliases maps a canonical brand name to its Latin and Cyrillic
// spellings as users actually type them. All aliases are lowercase.
var brandAliases = map[string][]string{
	"Chery":         {"chery", "чери", "черри"},
	"Jetour":        {"jetour", "джетур", "жетур"},
	"Haval":         {"haval", "хавал", "хавейл"},
	"Omoda":         {"omoda", "омода"},
	"Jaecoo":        {"jaecoo", "джейку", "джеку"},
	"Tenet":         {"tenet", "тенет"},
	"BMW":           {"bmw", "бмв", "бэха"},
	"Mercedes-Benz": {"mercedes", "мерседес", "мерс"},
	"ВАЗ":           {"ваз", "лада", "lada", "жигули", "vaz"},
	"Toyota":        {"toyota", "тойота"},
	"Kia":           {"kia", "киа"},
	"Hyundai":       {"hyundai", "хендай", "хундай", "хендэ"},
	"Volkswagen":    {"volkswagen", "фольксваген", "vw"},
	"Nissan":        {"nissan", "ниссан"},
	"Mitsubishi":    {"mitsubishi", "мицубиси", "митсубиси"},
	"Renault":       {"renault", "рено"},
	"Skoda":         {"skoda", "шкода"},
	"Audi":          {"audi", "ауди"},
	"Lexus":         {"lexus", "лексус"},
	"Geely":         {"geely", "джили"},
	"Changan":       {"changan", "чанган"},
	"Exeed":         {"exeed", "эксид"},
	"Porsche":       {"porsche", "порше"},
	"Ford":          {"ford", "форд"},
	"Mazda":         {"mazda", "мазда"},
	"Honda":         {"honda", "хонда"},
	"УАЗ":           {"уаз", "uaz"},
	"ГАЗ":           {"газ", "газель", "gaz"},
}

// shortAliasLimit is the alias length (in runes) at or below which a match
// must sit on token boundaries, so that e.g. "ваз" does not match inside
// an unrelated longer word.
const shortAliasLimit = 4

type aliasEntry struct {
	alias string
	brand string
}

// BrandMatcher resolves free text to a canonical brand name.
type BrandMatcher struct {
	entries []aliasEntry
}

func NewBrandMatcher() *BrandMatcher {
	brands := make([]string, 0, len(brandAliases))
	for brand := range brandAliases {
		brands = append(brands, brand)
	}
	sort.Strings(brands)

	var entries []aliasEntry
	for _, brand := range brands {
		for _, alias := range brandAliases[brand] {
			entries = append(entries, aliasEntry{alias: alias, brand: brand})
		}
	}
	return &BrandMatcher{entries: entries}
}

// FindBrand returns the canonical brand whose alias appears earliest in the
// input. Case-insensitive; ё is folded to е. Returns false on no match.
func (m *BrandMatcher) FindBrand(text string) (string, bool) {
	normalized := normalizeText(text)

	best := -1
	bestBrand := ""
	for _, e := range m.entries {
		idx := matchAlias(normalized, e.alias)
		if idx < 0 {
			continue
		}
		if best == -1 || idx < best {
			best = idx
			bestBrand = e.brand
		}
	}
	if best == -1 {
		return "", false
	}
	return bestBrand, true
}

// Canonical maps a brand name as returned by the classifier back onto the
// alias table, so that e.g. "чери" or "CHERY" both become "Chery".
func (m *BrandMatcher) Canonical(brand string) string {
	trimmed := strings.TrimSpace(brand)
	if trimmed == "" {
		return ""
	}
	if found, ok := m.FindBrand(trimmed); ok {
		return found
	}
	return trimmed
}

func normalizeText(text string) string {
	return strings.ReplaceAll(strings.ToLower(text), "ё", "е")
}

// matchAlias returns the byte index of the first acceptable occurrence of
// alias in text, or -1. Short aliases only match whole tokens.
func matchAlias(text, alias string) int {
	needBoundary := len([]rune(alias)) <= shortAliasLimit

	offset := 0
	for {
		idx := strings.Index(text[offset:], alias)
		if idx < 0 {
			return -1
		}
		abs := offset + idx
		if !needBoundary || onTokenBoundary(text, abs, len(alias)) {
			return abs
		}
		offset = abs + len(alias)
	}
}

func onTokenBoundary(text string, start, length int) bool {
	if start > 0 {
		before := []rune(text[:start])
		if isWordRune(before[len(before)-1]) {
			return false
		}
	}
	rest := []rune(text[start+length:])
	if len(rest) > 0 && isWordRune(rest[0]) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ContainsToken reports whether word appears in text as a whole token.
// Matching is case-insensitive with ё folded to е.
func ContainsToken(text, word string) bool {
	target := normalizeText(word)
	fields := strings.FieldsFunc(normalizeText(text), func(r rune) bool { return !isWordRune(r) })
	for _, f := range fields {
		if f == target {
			return true
		}
	}
	return false
}
