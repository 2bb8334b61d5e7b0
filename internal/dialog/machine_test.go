package dialog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autolead-bot/internal/common/logger"
	"autolead-bot/internal/models"
	"autolead-bot/internal/store"
)

type stubClassifier struct {
	results []models.ClassificationResult
	calls   int
}

func (s *stubClassifier) Classify(ctx context.Context, text string) models.ClassificationResult {
	if s.calls >= len(s.results) {
		return models.FallbackClassification()
	}
	r := s.results[s.calls]
	s.calls++
	return r
}

type captureSink struct {
	leads    []models.LeadRecord
	failures int
}

func (s *captureSink) Append(ctx context.Context, lead models.LeadRecord) (models.LeadRecord, error) {
	if s.failures > 0 {
		s.failures--
		return models.LeadRecord{}, errors.New("sink unavailable")
	}
	s.leads = append(s.leads, lead)
	return lead, nil
}

func newTestMachine(t *testing.T, results ...models.ClassificationResult) (*Machine, *store.MemoryStore, *captureSink) {
	t.Helper()
	st := store.NewMemoryStore()
	sink := &captureSink{}
	m := NewMachine(st, &stubClassifier{results: results}, sink, logger.NewNoOpLogger())
	return m, st, sink
}

func send(t *testing.T, m *Machine, userID int64, text string) []Reply {
	t.Helper()
	out, err := m.HandleMessage(context.Background(), userID, text)
	require.NoError(t, err)
	return out
}

func texts(rs []Reply) []string {
	var out []string
	for _, r := range rs {
		out = append(out, r.Text)
	}
	return out
}

func TestHappyPathBuyNew(t *testing.T) {
	m, st, sink := newTestMachine(t, models.ClassificationResult{
		Intent:     models.IntentBuyNew,
		Confidence: models.ConfidenceHigh,
		Slots:      models.Slots{},
	})
	ctx := context.Background()

	out := send(t, m, 42, "/start")
	assert.Equal(t, []string{promptGreeting}, texts(out))

	out = send(t, m, 42, "Роман")
	assert.Equal(t, []string{promptAskInterest}, texts(out))

	// brand resolved locally from the alias, classifier supplies the intent
	out = send(t, m, 42, "хочу купить новый черри")
	assert.Equal(t, []string{promptAskBudget}, texts(out))

	out = send(t, m, 42, "до 2.5 млн")
	assert.Equal(t, []string{promptAskPhone("Роман")}, texts(out))

	out = send(t, m, 42, "89991234567")
	require.Len(t, out, 2)
	assert.Contains(t, out[0].Text, "Роман")
	assert.Contains(t, out[0].Text, "Chery")
	assert.Contains(t, out[0].Text, "+799****4567")
	assert.Equal(t, promptThanks, out[1].Text)

	conversation, err := st.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, conversation.State)

	require.Len(t, sink.leads, 1)
	lead := sink.leads[0]
	assert.Equal(t, int64(42), lead.UserID)
	assert.Equal(t, "Роман", lead.Name)
	assert.Equal(t, "buy_new", lead.Intent)
	assert.Equal(t, "Chery", lead.Brand)
	assert.Equal(t, "+79991234567", lead.Phone)
	budget, ok := lead.Slots.BudgetMax()
	require.True(t, ok)
	assert.Equal(t, 2500000, budget)
	assert.Empty(t, lead.Flags)
}

func TestRepairFlow(t *testing.T) {
	m, _, sink := newTestMachine(t, models.ClassificationResult{
		Intent:     models.IntentRepair,
		Confidence: models.ConfidenceHigh,
		Slots:      models.Slots{},
	})

	send(t, m, 1, "/start")
	send(t, m, 1, "Анна")

	out := send(t, m, 1, "нужен ремонт")
	assert.Equal(t, []string{promptAskOwnedBrand}, texts(out))

	out = send(t, m, 1, "у меня хавал")
	assert.Equal(t, []string{promptAskRepairType}, texts(out))

	out = send(t, m, 1, "покраска бампера")
	assert.Equal(t, []string{promptAskPhone("Анна")}, texts(out))

	send(t, m, 1, "+7(999)123-45-67")

	require.Len(t, sink.leads, 1)
	assert.Equal(t, "repair", sink.leads[0].Intent)
	assert.Equal(t, "Haval", sink.leads[0].Brand)
	repairType, ok := sink.leads[0].Slots.String(models.SlotRepairType)
	require.True(t, ok)
	assert.Equal(t, "кузовной", repairType)
}

func TestRepairTypeDefaultAfterOneReAsk(t *testing.T) {
	m, _, sink := newTestMachine(t, models.ClassificationResult{
		Intent:       models.IntentRepair,
		UserCarBrand: "ВАЗ",
		Confidence:   models.ConfidenceHigh,
		Slots:        models.Slots{},
	})

	send(t, m, 2, "/start")
	send(t, m, 2, "Игорь")
	out := send(t, m, 2, "ремонт лады")
	assert.Equal(t, []string{promptAskRepairType}, texts(out))

	out = send(t, m, 2, "ну как сказать")
	assert.Equal(t, []string{promptRepairTypeRetry}, texts(out))

	out = send(t, m, 2, "сложно объяснить")
	assert.Equal(t, []string{promptAskPhone("Игорь")}, texts(out))

	send(t, m, 2, "89991234567")
	require.Len(t, sink.leads, 1)
	repairType, _ := sink.leads[0].Slots.String(models.SlotRepairType)
	assert.Equal(t, "слесарный", repairType)
}

func TestPhoneRetryBound(t *testing.T) {
	m, st, sink := newTestMachine(t, models.ClassificationResult{
		Intent:     models.IntentAccounting,
		Confidence: models.ConfidenceHigh,
		Slots:      models.Slots{},
	})
	ctx := context.Background()

	send(t, m, 3, "/start")
	send(t, m, 3, "Олег")
	out := send(t, m, 3, "вопрос по бухгалтерии")
	assert.Equal(t, []string{promptAskPhone("Олег")}, texts(out))

	out = send(t, m, 3, "не дам")
	assert.Equal(t, []string{promptPhoneRetry}, texts(out))
	out = send(t, m, 3, "потом")
	assert.Equal(t, []string{promptPhoneRetry}, texts(out))

	// third failure finishes the dialog instead of looping
	out = send(t, m, 3, "нет")
	require.Len(t, out, 2)
	assert.Equal(t, promptThanks, out[1].Text)

	conversation, err := st.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, conversation.State)
	assert.Equal(t, 3, conversation.PhoneAttempts)
	assert.Empty(t, conversation.Phone)

	require.Len(t, sink.leads, 1)
	assert.Empty(t, sink.leads[0].Phone)
	assert.Contains(t, sink.leads[0].Flags, models.LeadFlagPhoneMissing)
}

func TestBudgetRetryBound(t *testing.T) {
	m, _, sink := newTestMachine(t, models.ClassificationResult{
		Intent:      models.IntentBuyNew,
		TargetBrand: "Jetour",
		Confidence:  models.ConfidenceHigh,
		Slots:       models.Slots{},
	})

	send(t, m, 4, "/start")
	send(t, m, 4, "Вера")
	out := send(t, m, 4, "хочу купить новый джетур")
	assert.Equal(t, []string{promptAskBudget}, texts(out))

	out = send(t, m, 4, "пока думаю")
	assert.Equal(t, []string{promptBudgetRetry}, texts(out))

	// second failed attempt proceeds without a budget
	out = send(t, m, 4, "сложный вопрос")
	assert.Equal(t, []string{promptAskPhone("Вера")}, texts(out))

	send(t, m, 4, "89991234567")
	require.Len(t, sink.leads, 1)
	_, ok := sink.leads[0].Slots.BudgetMax()
	assert.False(t, ok)
}

func TestBudgetSkipWord(t *testing.T) {
	m, _, _ := newTestMachine(t, models.ClassificationResult{
		Intent:      models.IntentBuyUsed,
		TargetBrand: "Omoda",
		Confidence:  models.ConfidenceHigh,
		Slots:       models.Slots{},
	})

	send(t, m, 5, "/start")
	send(t, m, 5, "Петр")
	send(t, m, 5, "ищу омоду с пробегом")

	out := send(t, m, 5, "не знаю")
	assert.Equal(t, []string{promptAskPhone("Петр")}, texts(out))
}

func TestClarificationLoopBounded(t *testing.T) {
	m, st, sink := newTestMachine(t) // classifier always falls back
	ctx := context.Background()

	send(t, m, 6, "/start")
	send(t, m, 6, "Мария")

	out := send(t, m, 6, "привет")
	assert.Equal(t, []string{promptClarify}, texts(out))

	// second unresolved verdict is accepted as a generic lead
	out = send(t, m, 6, "ну просто так")
	assert.Equal(t, []string{promptAskPhone("Мария")}, texts(out))

	conversation, err := st.Get(ctx, 6)
	require.NoError(t, err)
	assert.Equal(t, models.IntentOther, conversation.Intent)
	assert.False(t, conversation.PendingClarification)

	send(t, m, 6, "89991234567")
	require.Len(t, sink.leads, 1)
	assert.Equal(t, "other", sink.leads[0].Intent)
}

func TestClarificationSecondResultIsAdditive(t *testing.T) {
	m, st, _ := newTestMachine(t,
		models.FallbackClassification(),
		models.ClassificationResult{
			Intent:      models.IntentBuyUsed,
			TargetBrand: "Audi",
			Confidence:  models.ConfidenceHigh,
			Slots:       models.Slots{},
		},
	)
	ctx := context.Background()

	send(t, m, 7, "/start")
	send(t, m, 7, "Роман")

	// brand found locally on the first pass, intent unresolved
	out := send(t, m, 7, "BMW")
	assert.Equal(t, []string{promptClarify}, texts(out))

	send(t, m, 7, "хочу купить с пробегом")

	conversation, err := st.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, models.IntentBuyUsed, conversation.Intent)
	// the already-resolved brand is not overridden
	assert.Equal(t, "BMW", conversation.TargetBrand)
}

func TestKeywordFallbackWhenClassifierDown(t *testing.T) {
	m, st, _ := newTestMachine(t) // classifier always falls back
	ctx := context.Background()

	send(t, m, 8, "/start")
	send(t, m, 8, "Иван")

	out := send(t, m, 8, "нужны запчасти на ниссан")
	assert.Equal(t, []string{promptAskPhone("Иван")}, texts(out))

	conversation, err := st.Get(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, models.IntentSpares, conversation.Intent)
	assert.Equal(t, "Nissan", conversation.UserCarBrand)
}

func TestRestartIsIdempotentFromEveryState(t *testing.T) {
	ctx := context.Background()

	drive := map[string][]string{
		"greeting":      {},
		"detect_intent": {"Роман"},
		"collect_specs": {"Роман", "хочу купить новый черри"},
		"collect_phone": {"Роман", "хочу купить новый черри", "до 2 млн"},
		"finished":      {"Роман", "хочу купить новый черри", "до 2 млн", "89991234567"},
	}

	for name, messages := range drive {
		t.Run(name, func(t *testing.T) {
			m, st, _ := newTestMachine(t, models.ClassificationResult{
				Intent:     models.IntentBuyNew,
				Confidence: models.ConfidenceHigh,
				Slots:      models.Slots{},
			})

			send(t, m, 9, "/start")
			for _, msg := range messages {
				send(t, m, 9, msg)
			}

			out := send(t, m, 9, "/start")
			assert.Equal(t, []string{promptGreeting}, texts(out))

			conversation, err := st.Get(ctx, 9)
			require.NoError(t, err)
			require.NotNil(t, conversation)
			assert.Equal(t, models.StateGreeting, conversation.State)
			assert.Empty(t, conversation.Name)
			assert.Empty(t, conversation.Intent)
			assert.Empty(t, conversation.TargetBrand)
			assert.Empty(t, conversation.Phone)
			assert.Empty(t, conversation.Slots)
			assert.Zero(t, conversation.PhoneAttempts)
		})
	}
}

func TestFinishedStateAsksForRestart(t *testing.T) {
	m, _, sink := newTestMachine(t, models.ClassificationResult{
		Intent:     models.IntentAccounting,
		Confidence: models.ConfidenceHigh,
		Slots:      models.Slots{},
	})

	send(t, m, 10, "/start")
	send(t, m, 10, "Олег")
	send(t, m, 10, "бухгалтерия")
	send(t, m, 10, "89991234567")
	require.Len(t, sink.leads, 1)

	out := send(t, m, 10, "а что дальше?")
	assert.Equal(t, []string{promptRestart}, texts(out))
	assert.Len(t, sink.leads, 1, "no extra leads after finish")
}

func TestBranchingFastPathToConfirm(t *testing.T) {
	// with every required slot already set, each intent goes straight to
	// confirmation without further prompts
	cases := []struct {
		intent models.Intent
		setup  func(c *models.ConversationContext)
	}{
		{models.IntentBuyNew, func(c *models.ConversationContext) {
			c.TargetBrand = "Chery"
			c.Slots[models.SlotBudgetMax] = 2000000
		}},
		{models.IntentBuyUsed, func(c *models.ConversationContext) {
			c.TargetBrand = "Haval"
			c.Slots[models.SlotBudgetMax] = 1500000
		}},
		{models.IntentRepair, func(c *models.ConversationContext) {
			c.UserCarBrand = "ВАЗ"
			c.Slots[models.SlotRepairType] = "слесарный"
		}},
		{models.IntentSpares, func(c *models.ConversationContext) {
			c.UserCarBrand = "Kia"
		}},
		{models.IntentSell, func(c *models.ConversationContext) {
			c.UserCarBrand = "BMW"
		}},
		{models.IntentAccounting, func(c *models.ConversationContext) {}},
	}

	for _, tc := range cases {
		t.Run(string(tc.intent), func(t *testing.T) {
			m, _, sink := newTestMachine(t)

			c := models.NewConversationContext(11)
			c.State = models.StateDetectIntent
			c.Name = "Роман"
			c.Intent = tc.intent
			c.Phone = "+79991234567"
			tc.setup(c)

			out := m.advance(context.Background(), c)
			require.Len(t, out, 2)
			assert.Equal(t, promptThanks, out[1].Text)
			assert.Equal(t, models.StateFinished, c.State)
			require.Len(t, sink.leads, 1)
			assert.Equal(t, string(tc.intent), sink.leads[0].Intent)
		})
	}
}

func TestPersistRetryAndDegradedConfirmation(t *testing.T) {
	m, st, sink := newTestMachine(t, models.ClassificationResult{
		Intent:     models.IntentAccounting,
		Confidence: models.ConfidenceHigh,
		Slots:      models.Slots{},
	})
	ctx := context.Background()

	send(t, m, 12, "/start")
	send(t, m, 12, "Олег")
	send(t, m, 12, "бухгалтерия")

	// first attempt fails, the retry succeeds
	sink.failures = 1
	out := send(t, m, 12, "89991234567")
	require.Len(t, out, 2)
	require.Len(t, sink.leads, 1)

	conversation, err := st.Get(ctx, 12)
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, conversation.State)
}

func TestPersistFailureStillConfirms(t *testing.T) {
	m, st, sink := newTestMachine(t, models.ClassificationResult{
		Intent:     models.IntentAccounting,
		Confidence: models.ConfidenceHigh,
		Slots:      models.Slots{},
	})
	ctx := context.Background()

	send(t, m, 13, "/start")
	send(t, m, 13, "Олег")
	send(t, m, 13, "бухгалтерия")

	sink.failures = 2 // both the attempt and the retry fail
	out := send(t, m, 13, "89991234567")
	require.Len(t, out, 2)
	assert.Equal(t, promptThanks, out[1].Text)
	assert.Empty(t, sink.leads)

	conversation, err := st.Get(ctx, 13)
	require.NoError(t, err)
	assert.Equal(t, models.StateFinished, conversation.State)
}

func TestGreetingRejectsEmptyName(t *testing.T) {
	m, _, _ := newTestMachine(t)

	send(t, m, 14, "/start")
	out := send(t, m, 14, "   ")
	assert.Equal(t, []string{promptAskName}, texts(out))

	out = send(t, m, 14, "Роман")
	assert.Equal(t, []string{promptAskInterest}, texts(out))
}

func TestFirstContactWithoutStart(t *testing.T) {
	m, st, _ := newTestMachine(t)
	ctx := context.Background()

	out := send(t, m, 15, "здравствуйте")
	assert.Equal(t, []string{promptGreeting}, texts(out))

	conversation, err := st.Get(ctx, 15)
	require.NoError(t, err)
	require.NotNil(t, conversation)
	assert.Equal(t, models.StateGreeting, conversation.State)
}
