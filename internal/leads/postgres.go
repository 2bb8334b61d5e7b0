package leads

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	commonerrors "autolead-bot/internal/common/errors"
	"autolead-bot/internal/models"
)

// PostgresSink inserts leads into a relational table; the open-ended slot
// map goes into a jsonb column.
type PostgresSink struct {
	db  *sql.DB
	now func() time.Time
}

const insertLeadQuery = `
	INSERT INTO leads (user_id, name, intent, brand, phone, slots, flags, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

func NewPostgresSink(dsn string) (*PostgresSink, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresSink{db: db, now: time.Now}, nil
}

// NewPostgresSinkWithDB is used by tests to inject a prepared connection.
func NewPostgresSinkWithDB(db *sql.DB) *PostgresSink {
	return &PostgresSink{db: db, now: time.Now}
}

func (s *PostgresSink) Append(ctx context.Context, lead models.LeadRecord) (models.LeadRecord, error) {
	lead.CreatedAt = s.now().UTC()

	slots, err := json.Marshal(lead.Slots)
	if err != nil {
		return models.LeadRecord{}, commonerrors.NewLeadAppendError(err.Error())
	}

	var brand sql.NullString
	if lead.Brand != "" {
		brand = sql.NullString{String: lead.Brand, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, insertLeadQuery,
		lead.UserID, lead.Name, lead.Intent, brand, lead.Phone,
		slots, pq.Array(lead.Flags), lead.CreatedAt)
	if err != nil {
		return models.LeadRecord{}, commonerrors.NewLeadAppendError(err.Error())
	}
	return lead, nil
}

// Close releases the database connection pool.
func (s *PostgresSink) Close() error {
	return s.db.Close()
}
