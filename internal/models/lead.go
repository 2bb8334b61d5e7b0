package models

import "time"

// Lead flags reported alongside a record when the dialog degraded instead of
// failing (see the bounded-retry rules in the dialog machine).
const (
	LeadFlagPhoneMissing  = "phone_missing"
	LeadFlagPersistFailed = "persist_failed"
)

// LeadRecord is the immutable qualified-lead snapshot built from a completed
// conversation. CreatedAt is assigned by the sink at append time, not by the
// caller.
type LeadRecord struct {
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Intent    string    `json:"intent"`
	Brand     string    `json:"brand,omitempty"`
	Phone     string    `json:"phone"`
	Slots     Slots     `json:"slots"`
	Flags     []string  `json:"flags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewLeadRecord builds the snapshot from a completed conversation context.
func NewLeadRecord(c *ConversationContext) LeadRecord {
	slots := Slots{}
	for k, v := range c.Slots {
		slots[k] = v
	}
	rec := LeadRecord{
		UserID: c.UserID,
		Name:   c.Name,
		Intent: string(c.Intent),
		Brand:  c.Brand(),
		Phone:  c.Phone,
		Slots:  slots,
	}
	if c.Phone == "" {
		rec.Flags = append(rec.Flags, LeadFlagPhoneMissing)
	}
	return rec
}
