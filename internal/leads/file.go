package leads

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	commonerrors "autolead-bot/internal/common/errors"
	"autolead-bot/internal/models"
)

// FileSink appends leads to a JSON-lines file. Each record is one marshal
// and one write under a process-level mutex, so concurrent appends from
// different conversations never interleave.
type FileSink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, now: time.Now}
}

func (s *FileSink) Append(ctx context.Context, lead models.LeadRecord) (models.LeadRecord, error) {
	lead.CreatedAt = s.now().UTC()

	line, err := json.Marshal(lead)
	if err != nil {
		return models.LeadRecord{}, commonerrors.NewLeadAppendError(err.Error())
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return models.LeadRecord{}, commonerrors.NewLeadAppendError(err.Error())
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return models.LeadRecord{}, commonerrors.NewLeadAppendError(err.Error())
	}
	return lead, nil
}
