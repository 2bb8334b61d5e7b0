package extract

import "strings"

// Repair type categories.
const (
	RepairMechanical = "слесарный"
	RepairBodywork   = "кузовной"
)

type keywordGroup struct {
	value    string
	keywords []string
}

// Ordered: the first group with a hit wins.
var bodyGroups = []keywordGroup{
	{"кроссовер", []string{"кроссовер", "кросс", "suv", "внедорожник", "джип", "паркетник"}},
	{"седан", []string{"седан", "sedan"}},
	{"хэтчбек", []string{"хэтчбек", "хетчбек", "hatchback", "хетч"}},
	{"универсал", []string{"универсал", "wagon", "вагон"}},
	{"пикап", []string{"пикап", "pickup"}},
	{"купе", []string{"купе", "coupe"}},
	{"кабриолет", []string{"кабриолет", "cabriolet", "кабрио"}},
	{"лифтбек", []string{"лифтбек", "liftback"}},
	{"минивэн", []string{"минивэн", "minivan", "вэн"}},
}

var driveGroups = []keywordGroup{
	{"4x4", []string{"полный привод", "полноприводн", "4x4", "4х4", "awd", "4wd", "полный"}},
	{"передний", []string{"передний привод", "переднеприводн", "передний", "fwd"}},
	{"задний", []string{"задний привод", "заднеприводн", "задний", "rwd"}},
}

var mechanicalKeywords = []string{
	"слесарн", "двигател", "подвеск", "техобслуживание",
	"механик", "масло", "фильтр", "диагностик",
}

var bodyworkKeywords = []string{
	"кузов", "вмятин", "покраск", "дтп", "авари", "крыло", "бампер",
}

// ParseBody extracts a body type from free text using fixed keyword sets.
func ParseBody(text string) (string, bool) {
	return matchGroups(text, bodyGroups)
}

// ParseDrive extracts a drive type from free text.
func ParseDrive(text string) (string, bool) {
	return matchGroups(text, driveGroups)
}

func matchGroups(text string, groups []keywordGroup) (string, bool) {
	lower := normalizeText(text)
	for _, g := range groups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				return g.value, true
			}
		}
	}
	return "", false
}

// ClassifyRepairType splits a reply into exactly one of the two service
// categories. Bodywork keywords are checked first since «кузовной» requests
// often also mention mechanical-sounding words. Returns false on ambiguous
// input so the caller can re-ask.
func ClassifyRepairType(text string) (string, bool) {
	lower := normalizeText(text)

	for _, kw := range bodyworkKeywords {
		if strings.Contains(lower, kw) {
			return RepairBodywork, true
		}
	}
	for _, kw := range mechanicalKeywords {
		if strings.Contains(lower, kw) {
			return RepairMechanical, true
		}
	}
	// «ТО» is too short for substring matching, whole token only
	if ContainsToken(text, "то") {
		return RepairMechanical, true
	}
	return "", false
}
