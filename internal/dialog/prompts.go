package dialog

import (
	"fmt"
	"strings"

	"autolead-bot/internal/models"
)

// Fixed Russian prompts. The bot never generates free-form text.
const (
	promptGreeting        = "Компания Автолидер приветствует Вас! Как к Вам обращаться?"
	promptAskName         = "Пожалуйста, укажите Ваше имя."
	promptAskInterest     = "Что Вас интересует: покупка/продажа авто, ремонт, запчасти, бухгалтерия?"
	promptClarify         = "Не совсем понял Ваш запрос. Пожалуйста, уточните, что Вас интересует: покупка, ремонт или другое?"
	promptAskTargetBrand  = "Какую марку и модель автомобиля рассматриваете?"
	promptAskOwnedBrand   = "Какой у Вас автомобиль (марка и модель)?"
	promptBrandNotFound   = "Не удалось определить марку. Пожалуйста, укажите марку и модель автомобиля."
	promptAskBudget       = "До какой суммы рассматриваете автомобиль?"
	promptBudgetRetry     = "Пожалуйста, укажите бюджет (например, 'до 2.5 млн' или '2500000 рублей')."
	promptAskRepairType   = "Это слесарный ремонт (двигатель, подвеска, ТО) или кузовной (вмятины, покраска, после ДТП)?"
	promptRepairTypeRetry = "Пожалуйста, укажите тип ремонта: слесарный (двигатель, подвеска, ТО) или кузовной (вмятины, покраска, после ДТП)."
	promptPhoneRetry      = "Не удалось распознать номер телефона. Пожалуйста, укажите номер в формате +7XXXXXXXXXX или 8XXXXXXXXXX."
	promptRestart         = "Диалог завершен. Напишите /start, чтобы начать новый запрос."
	promptThanks          = "Спасибо! В течение 10 минут Вам перезвонит специалист."
)

func promptAskPhone(name string) string {
	if name == "" {
		name = "Клиент"
	}
	return fmt.Sprintf("%s, оставьте, пожалуйста, Ваш номер телефона, в течение 10 минут Вам перезвонит специалист.", name)
}

var intentSummaries = map[models.Intent]string{
	models.IntentBuyNew:     "Вы ищете новый",
	models.IntentBuyUsed:    "Вы ищете б/у",
	models.IntentSell:       "Вы хотите продать",
	models.IntentRepair:     "Вам нужен ремонт",
	models.IntentSpares:     "Вам нужны запчасти",
	models.IntentAccounting: "У Вас вопрос по бухгалтерии",
	models.IntentOther:      "Ваш запрос",
}

// buildSummary renders the human-readable lead confirmation shown right
// before the conversation finishes.
func buildSummary(c *models.ConversationContext) string {
	name := c.Name
	if name == "" {
		name = "Клиент"
	}

	parts := []string{fmt.Sprintf("%s, принял Вашу заявку:", name)}

	summary, ok := intentSummaries[c.Intent]
	if !ok {
		summary = intentSummaries[models.IntentOther]
	}
	parts = append(parts, summary)

	if brand := c.Brand(); brand != "" {
		parts = append(parts, brand)
	}

	if c.Intent.IsPurchase() {
		if body, ok := c.Slots.String(models.SlotBody); ok {
			parts = append(parts, body)
		}
		if budget, ok := c.Slots.BudgetMax(); ok {
			if budget >= 1_000_000 {
				parts = append(parts, fmt.Sprintf("до %.1f млн", float64(budget)/1_000_000))
			} else {
				parts = append(parts, fmt.Sprintf("до %d руб.", budget))
			}
		}
		if drive, ok := c.Slots.String(models.SlotDrive); ok {
			parts = append(parts, fmt.Sprintf("(%s)", drive))
		}
	}

	if c.Intent == models.IntentRepair {
		if repairType, ok := c.Slots.String(models.SlotRepairType); ok {
			parts = append(parts, fmt.Sprintf("(%s)", repairType))
		}
	}

	if c.Phone != "" {
		parts = append(parts, fmt.Sprintf("Ваш номер %s.", maskPhone(c.Phone)))
	}

	return strings.Join(parts, " ")
}

func maskPhone(phone string) string {
	if len(phone) < 8 {
		return phone
	}
	return phone[:4] + "****" + phone[len(phone)-4:]
}
