// Package leads persists finished conversations as immutable lead records.
package leads

import (
	"context"

	"autolead-bot/internal/models"
)

// Sink is an append-only destination for completed leads. Append returns
// the stored record with the sink-assigned creation timestamp.
type Sink interface {
	Append(ctx context.Context, lead models.LeadRecord) (models.LeadRecord, error)
}

// MultiSink fans a lead out to several sinks. The first error aborts the
// remaining appends and is returned; the record of the first sink wins.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) Append(ctx context.Context, lead models.LeadRecord) (models.LeadRecord, error) {
	stored := lead
	for i, sink := range m.sinks {
		record, err := sink.Append(ctx, lead)
		if err != nil {
			return models.LeadRecord{}, err
		}
		if i == 0 {
			stored = record
		}
	}
	return stored, nil
}
