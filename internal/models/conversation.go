package models

// State is the position of a conversation in the qualification dialog.
type State string

const (
	StateGreeting          State = "greeting"
	StateDetectIntent      State = "detect_intent"
	StateCollectBrand      State = "collect_brand"
	StateCollectSpecs      State = "collect_specs"
	StateCollectRepairType State = "collect_repair_type"
	StateCollectPhone      State = "collect_phone"
	StateConfirm           State = "confirm"
	StateFinished          State = "finished"
)

// Intent is the closed set of recognized user goals.
type Intent string

const (
	IntentBuyNew     Intent = "buy_new"
	IntentBuyUsed    Intent = "buy_used"
	IntentSell       Intent = "sell"
	IntentRepair     Intent = "repair"
	IntentSpares     Intent = "spares"
	IntentAccounting Intent = "accounting"
	IntentOther      Intent = "other"
)

// KnownIntents lists every valid intent value.
var KnownIntents = []Intent{
	IntentBuyNew, IntentBuyUsed, IntentSell, IntentRepair,
	IntentSpares, IntentAccounting, IntentOther,
}

// IsValid reports whether i is a member of the closed intent set.
func (i Intent) IsValid() bool {
	for _, known := range KnownIntents {
		if i == known {
			return true
		}
	}
	return false
}

// IsPurchase reports whether the intent is one of the buy flows.
func (i Intent) IsPurchase() bool {
	return i == IntentBuyNew || i == IntentBuyUsed
}

// NeedsOwnedBrand reports whether the intent refers to a car the user
// already owns rather than one they want to acquire.
func (i Intent) NeedsOwnedBrand() bool {
	return i == IntentRepair || i == IntentSpares || i == IntentSell
}

// Confidence is the classifier-reported certainty tier.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Slot keys the dialog branching logic inspects directly.
const (
	SlotBudgetMax  = "budget_max"
	SlotBody       = "body"
	SlotDrive      = "drive"
	SlotRepairType = "repair_type"
	SlotRawModel   = "raw_model"
)

// Slots is the open string-keyed bag of extracted values. The keys above
// carry typed accessors; everything else is free-form extras.
type Slots map[string]interface{}

// BudgetMax returns the budget_max slot as an int if present. JSON decoding
// stores numbers as float64, so both representations are accepted.
func (s Slots) BudgetMax() (int, bool) {
	v, ok := s[SlotBudgetMax]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// String returns the named slot as a non-empty string if present.
func (s Slots) String(key string) (string, bool) {
	v, ok := s[key]
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	if !ok || str == "" {
		return "", false
	}
	return str, true
}

// Merge copies entries from other into s without overwriting existing keys.
func (s Slots) Merge(other Slots) {
	for k, v := range other {
		if v == nil {
			continue
		}
		if _, exists := s[k]; !exists {
			s[k] = v
		}
	}
}

// ConversationContext is the per-user dialog state. One instance exists per
// user identifier for the lifetime of a conversation; a restart command
// replaces it with a fresh one.
type ConversationContext struct {
	UserID               int64  `json:"userId"`
	State                State  `json:"state"`
	Name                 string `json:"name,omitempty"`
	Intent               Intent `json:"intent,omitempty"`
	TargetBrand          string `json:"targetBrand,omitempty"`
	UserCarBrand         string `json:"userCarBrand,omitempty"`
	Slots                Slots  `json:"slots"`
	Phone                string `json:"phone,omitempty"`
	PhoneAttempts        int    `json:"phoneAttempts"`
	RepairTypeAsked      bool   `json:"repairTypeAsked"`
	BudgetAttempts       int    `json:"budgetAttempts"`
	PendingClarification bool   `json:"pendingClarification"`
}

// Clone returns an independent copy, including the slot map.
func (c *ConversationContext) Clone() *ConversationContext {
	clone := *c
	clone.Slots = make(Slots, len(c.Slots))
	for k, v := range c.Slots {
		clone.Slots[k] = v
	}
	return &clone
}

// NewConversationContext returns a fresh context in the greeting state.
func NewConversationContext(userID int64) *ConversationContext {
	return &ConversationContext{
		UserID: userID,
		State:  StateGreeting,
		Slots:  Slots{},
	}
}

// Brand returns whichever brand field is relevant for the current intent.
func (c *ConversationContext) Brand() string {
	if c.Intent.NeedsOwnedBrand() {
		return c.UserCarBrand
	}
	if c.TargetBrand != "" {
		return c.TargetBrand
	}
	return c.UserCarBrand
}

// SetBrand stores brand into the field appropriate for the current intent.
func (c *ConversationContext) SetBrand(brand string) {
	if brand == "" {
		return
	}
	if c.Intent.NeedsOwnedBrand() {
		c.UserCarBrand = brand
		return
	}
	c.TargetBrand = brand
}
