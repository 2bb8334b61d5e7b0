// Package dialog implements the conversation state machine that qualifies
// sales leads: it tracks per-user progress, decides the next question,
// invokes the classifier and extractors, and hands finished conversations
// to the lead sink.
package dialog

import (
	"context"
	"strings"
	"sync"

	"autolead-bot/internal/common/logger"
	"autolead-bot/internal/common/metrics"
	"autolead-bot/internal/extract"
	"autolead-bot/internal/leads"
	"autolead-bot/internal/models"
	"autolead-bot/internal/store"
)

const (
	restartCommand     = "/start"
	phoneAttemptLimit  = 3
	budgetAttemptLimit = 2
)

// Reply is one outbound message for the transport to deliver.
type Reply struct {
	Text string
}

// Classifier resolves free text into a structured intent. Implementations
// must absorb their own failures (see the classifier package).
type Classifier interface {
	Classify(ctx context.Context, text string) models.ClassificationResult
}

// Machine orchestrates the dialog. Handling is serialized per user; different
// users proceed concurrently.
type Machine struct {
	store      store.ConversationStore
	classifier Classifier
	sink       leads.Sink
	brands     *extract.BrandMatcher
	log        logger.Logger

	locks sync.Map // userID -> *sync.Mutex
}

func NewMachine(s store.ConversationStore, c Classifier, sink leads.Sink, log logger.Logger) *Machine {
	return &Machine{
		store:      s,
		classifier: c,
		sink:       sink,
		brands:     extract.NewBrandMatcher(),
		log:        log,
	}
}

// HandleMessage processes one inbound message and returns the outbound
// replies. Errors are limited to store failures; everything else degrades
// inside the handlers.
func (m *Machine) HandleMessage(ctx context.Context, userID int64, text string) ([]Reply, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	text = strings.TrimSpace(text)

	if text == restartCommand {
		return m.restart(ctx, userID)
	}

	conversation, err := m.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if conversation == nil {
		conversation = models.NewConversationContext(userID)
		if err := m.store.Put(ctx, conversation); err != nil {
			return nil, err
		}
		return replies(promptGreeting), nil
	}

	var out []Reply
	switch conversation.State {
	case models.StateGreeting:
		out = m.handleGreeting(conversation, text)
	case models.StateDetectIntent:
		out = m.handleDetectIntent(ctx, conversation, text)
	case models.StateCollectBrand:
		out = m.handleCollectBrand(ctx, conversation, text)
	case models.StateCollectSpecs:
		out = m.handleCollectSpecs(ctx, conversation, text)
	case models.StateCollectRepairType:
		out = m.handleCollectRepairType(ctx, conversation, text)
	case models.StateCollectPhone:
		out = m.handleCollectPhone(ctx, conversation, text)
	default:
		out = replies(promptRestart)
	}

	metrics.MessagesProcessed.WithLabelValues(string(conversation.State)).Inc()

	if err := m.store.Put(ctx, conversation); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Machine) restart(ctx context.Context, userID int64) ([]Reply, error) {
	if err := m.store.Delete(ctx, userID); err != nil {
		return nil, err
	}
	conversation := models.NewConversationContext(userID)
	if err := m.store.Put(ctx, conversation); err != nil {
		return nil, err
	}
	m.log.Info("conversation restarted", map[string]interface{}{"user_id": userID})
	return replies(promptGreeting), nil
}

func (m *Machine) handleGreeting(c *models.ConversationContext, text string) []Reply {
	if text == "" {
		return replies(promptAskName)
	}
	c.Name = text
	m.transition(c, models.StateDetectIntent)
	return replies(promptAskInterest)
}

func (m *Machine) handleDetectIntent(ctx context.Context, c *models.ConversationContext, text string) []Reply {
	result := m.classifier.Classify(ctx, text)
	result.TargetBrand = m.brands.Canonical(result.TargetBrand)
	result.UserCarBrand = m.brands.Canonical(result.UserCarBrand)

	wasPending := c.PendingClarification
	c.PendingClarification = false

	resolved := false
	if result.Intent.IsValid() && !result.Unresolved() {
		c.Intent = result.Intent
		resolved = true
	} else if intent, repairType, ok := keywordFallback(text); ok {
		c.Intent = intent
		if repairType != "" {
			if _, exists := c.Slots[models.SlotRepairType]; !exists {
				c.Slots[models.SlotRepairType] = repairType
			}
		}
		resolved = true
	}

	// brands and slots are stored additively on both passes
	if c.TargetBrand == "" {
		c.TargetBrand = result.TargetBrand
	}
	if c.UserCarBrand == "" {
		c.UserCarBrand = result.UserCarBrand
	}
	c.Slots.Merge(result.Slots)
	if c.Brand() == "" {
		if brand, ok := m.brands.FindBrand(text); ok {
			c.SetBrand(brand)
		}
	}

	if !resolved {
		if !wasPending {
			// one clarification round, then the next verdict stands
			c.PendingClarification = true
			return replies(promptClarify)
		}
		if result.Intent.IsValid() && result.Intent != models.IntentOther {
			c.Intent = result.Intent
		} else {
			c.Intent = models.IntentOther
		}
	}

	return m.advance(ctx, c)
}

func (m *Machine) handleCollectBrand(ctx context.Context, c *models.ConversationContext, text string) []Reply {
	c.Slots[models.SlotRawModel] = text

	brand, ok := m.brands.FindBrand(text)
	if !ok {
		return replies(promptBrandNotFound)
	}
	c.SetBrand(brand)
	return m.advance(ctx, c)
}

func (m *Machine) handleCollectSpecs(ctx context.Context, c *models.ConversationContext, text string) []Reply {
	// body and drive are opportunistic, never asked for explicitly
	if body, ok := extract.ParseBody(text); ok {
		if _, exists := c.Slots[models.SlotBody]; !exists {
			c.Slots[models.SlotBody] = body
		}
	}
	if drive, ok := extract.ParseDrive(text); ok {
		if _, exists := c.Slots[models.SlotDrive]; !exists {
			c.Slots[models.SlotDrive] = drive
		}
	}

	if budget, ok := extract.ParseBudget(text); ok {
		c.Slots[models.SlotBudgetMax] = budget
		c.BudgetAttempts = 0
		return m.advance(ctx, c)
	}
	if extract.IsBudgetSkip(text) {
		c.BudgetAttempts = budgetAttemptLimit
		return m.advance(ctx, c)
	}

	c.BudgetAttempts++
	if c.BudgetAttempts >= budgetAttemptLimit {
		return m.advance(ctx, c)
	}
	return replies(promptBudgetRetry)
}

func (m *Machine) handleCollectRepairType(ctx context.Context, c *models.ConversationContext, text string) []Reply {
	if repairType, ok := extract.ClassifyRepairType(text); ok {
		c.Slots[models.SlotRepairType] = repairType
		return m.advance(ctx, c)
	}
	if !c.RepairTypeAsked {
		c.RepairTypeAsked = true
		return replies(promptRepairTypeRetry)
	}
	c.Slots[models.SlotRepairType] = extract.RepairMechanical
	return m.advance(ctx, c)
}

func (m *Machine) handleCollectPhone(ctx context.Context, c *models.ConversationContext, text string) []Reply {
	if phone, ok := extract.NormalizePhone(text); ok {
		c.Phone = phone
		return m.advance(ctx, c)
	}

	metrics.PhoneValidationFailures.Inc()
	c.PhoneAttempts++
	if c.PhoneAttempts >= phoneAttemptLimit {
		m.log.Warn("phone retry limit reached, finishing without phone", map[string]interface{}{
			"user_id":  c.UserID,
			"attempts": c.PhoneAttempts,
		})
		return m.finalize(ctx, c)
	}
	return replies(promptPhoneRetry)
}

// advance applies the branching table: the first unmet requirement for the
// current intent selects the next state and prompt.
func (m *Machine) advance(ctx context.Context, c *models.ConversationContext) []Reply {
	switch {
	case c.Intent.IsPurchase():
		if c.Brand() == "" {
			m.transition(c, models.StateCollectBrand)
			return replies(promptAskTargetBrand)
		}
		if !m.budgetResolved(c) {
			m.transition(c, models.StateCollectSpecs)
			return replies(promptAskBudget)
		}
	case c.Intent == models.IntentRepair:
		if c.Brand() == "" {
			m.transition(c, models.StateCollectBrand)
			return replies(promptAskOwnedBrand)
		}
		if _, ok := c.Slots.String(models.SlotRepairType); !ok {
			m.transition(c, models.StateCollectRepairType)
			return replies(promptAskRepairType)
		}
	case c.Intent == models.IntentSpares || c.Intent == models.IntentSell:
		if c.Brand() == "" {
			m.transition(c, models.StateCollectBrand)
			return replies(promptAskOwnedBrand)
		}
	}
	// accounting and generic leads need only the phone

	if c.Phone == "" && c.PhoneAttempts < phoneAttemptLimit {
		m.transition(c, models.StateCollectPhone)
		return replies(promptAskPhone(c.Name))
	}
	return m.finalize(ctx, c)
}

func (m *Machine) budgetResolved(c *models.ConversationContext) bool {
	if _, ok := c.Slots.BudgetMax(); ok {
		return true
	}
	return c.BudgetAttempts >= budgetAttemptLimit
}

// finalize builds the lead snapshot, persists it and closes the dialog.
// A sink failure is retried once; the user still gets the confirmation, the
// failure is reported through logs and metrics.
func (m *Machine) finalize(ctx context.Context, c *models.ConversationContext) []Reply {
	m.transition(c, models.StateConfirm)

	lead := models.NewLeadRecord(c)
	stored, err := m.sink.Append(ctx, lead)
	if err != nil {
		stored, err = m.sink.Append(ctx, lead)
	}
	if err != nil {
		lead.Flags = append(lead.Flags, models.LeadFlagPersistFailed)
		metrics.LeadsPersisted.WithLabelValues("primary", "error").Inc()
		m.log.WithError(err).Error("failed to persist lead", map[string]interface{}{
			"user_id": c.UserID,
			"intent":  string(c.Intent),
		})
	} else {
		lead = stored
		metrics.LeadsPersisted.WithLabelValues("primary", "success").Inc()
		m.log.Info("lead persisted", map[string]interface{}{
			"user_id": lead.UserID,
			"intent":  lead.Intent,
			"brand":   lead.Brand,
		})
	}

	m.transition(c, models.StateFinished)
	return replies(buildSummary(c), promptThanks)
}

func (m *Machine) transition(c *models.ConversationContext, to models.State) {
	if c.State == to {
		return
	}
	metrics.DialogTransitions.WithLabelValues(string(c.State), string(to)).Inc()
	m.log.Debug("dialog transition", map[string]interface{}{
		"user_id": c.UserID,
		"from":    string(c.State),
		"to":      string(to),
	})
	c.State = to
}

func (m *Machine) userLock(userID int64) *sync.Mutex {
	lock, _ := m.locks.LoadOrStore(userID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func replies(texts ...string) []Reply {
	out := make([]Reply, 0, len(texts))
	for _, t := range texts {
		out = append(out, Reply{Text: t})
	}
	return out
}
