package dialog

import (
	"strings"

	"autolead-bot/internal/extract"
	"autolead-bot/internal/models"
)

// Deterministic keyword fallbacks applied when the classifier returns an
// unresolved result. These mirror the service's routing vocabulary and are
// checked most-specific first.
var (
	sparesKeywords = []string{
		"запчаст", "масляный фильтр", "тормозные колодк", "свечи зажигания", "аккумулятор",
	}
	accountingKeywords = []string{
		"бухгалтер", "счет", "акт сверки", "оплат",
	}
	bodyworkHints = []string{
		"кузовной", "вмятин", "покраск", "дтп", "авари", "бампер", "крыло",
	}
	mechanicalHints = []string{
		"замена масла", "поменять масло", "заменить масло", "техобслуживание", "диагностик", "шиномонтаж", "переобу",
	}
	repairKeywords = []string{
		"ремонт", "почин", "сломал", "не работает", "сервис", "обслуживан",
	}
	buyUsedKeywords = []string{
		"с пробегом", "б/у", "подержанн",
	}
	buyNewKeywords = []string{
		"хочу купить", "купить нов", "покупка", "нужен новый", "ищу нов", "хочу нов",
	}
	sellKeywords = []string{
		"продать", "продаю", "выкуп",
	}
)

// keywordFallback infers an intent from fixed keyword sets. The second
// return value is a repair type when the keywords imply one.
func keywordFallback(text string) (models.Intent, string, bool) {
	lower := strings.ToLower(strings.ReplaceAll(text, "ё", "е"))

	if containsAny(lower, sparesKeywords) {
		return models.IntentSpares, "", true
	}
	if containsAny(lower, accountingKeywords) {
		return models.IntentAccounting, "", true
	}
	if containsAny(lower, bodyworkHints) {
		return models.IntentRepair, extract.RepairBodywork, true
	}
	if containsAny(lower, mechanicalHints) || extract.ContainsToken(text, "то") {
		return models.IntentRepair, extract.RepairMechanical, true
	}
	if containsAny(lower, repairKeywords) {
		return models.IntentRepair, "", true
	}
	if containsAny(lower, sellKeywords) {
		return models.IntentSell, "", true
	}
	if containsAny(lower, buyUsedKeywords) {
		return models.IntentBuyUsed, "", true
	}
	if containsAny(lower, buyNewKeywords) {
		return models.IntentBuyNew, "", true
	}
	return "", "", false
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
