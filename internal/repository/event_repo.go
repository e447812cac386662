package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
)

// EventRepository is the append-only notification log.  Seq is assigned by
// the pool_events bigserial, so the database is the single source of event
// ordering.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

type eventRow struct {
	ID         uuid.UUID `db:"id"`
	Seq        int64     `db:"seq"`
	Type       string    `db:"type"`
	Attributes []byte    `db:"attributes"`
	CreatedAt  time.Time `db:"created_at"`
}

func (row eventRow) toDomain() (domain.Event, error) {
	attrs := map[string]string{}
	if len(row.Attributes) > 0 {
		if err := json.Unmarshal(row.Attributes, &attrs); err != nil {
			return domain.Event{}, fmt.Errorf("event_repo: corrupt attributes for %s: %w", row.ID, err)
		}
	}
	return domain.Event{
		ID:         row.ID,
		Seq:        row.Seq,
		Type:       domain.EventType(row.Type),
		Attributes: attrs,
		CreatedAt:  row.CreatedAt,
	}, nil
}

// Append inserts event records inside a transaction and returns them with
// their assigned sequence numbers.
func (r *EventRepository) Append(ctx context.Context, tx *sqlx.Tx, events []domain.Event) ([]domain.Event, error) {
	out := make([]domain.Event, 0, len(events))
	for _, ev := range events {
		attrs, err := json.Marshal(ev.Attributes)
		if err != nil {
			return nil, fmt.Errorf("event_repo.Append marshal: %w", err)
		}
		var seq int64
		err = tx.GetContext(ctx, &seq, `
			INSERT INTO pool_events (id, type, attributes, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING seq`,
			ev.ID, string(ev.Type), attrs, ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("event_repo.Append: %w", err)
		}
		ev.Seq = seq
		out = append(out, ev)
	}
	return out, nil
}

// ListSince returns up to limit events with seq strictly greater than after,
// in ascending order.  Pollers pass the last seq they have seen.
func (r *EventRepository) ListSince(ctx context.Context, after int64, limit int) ([]domain.Event, error) {
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, seq, type, attributes, created_at
		FROM pool_events
		WHERE seq > $1
		ORDER BY seq ASC
		LIMIT $2`,
		after, limit)
	if err != nil {
		return nil, fmt.Errorf("event_repo.ListSince: %w", err)
	}
	out := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// ListByPair returns the most recent events for one canonical pair, newest
// first.
func (r *EventRepository) ListByPair(ctx context.Context, key domain.PairKey, limit int) ([]domain.Event, error) {
	var rows []eventRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, seq, type, attributes, created_at
		FROM pool_events
		WHERE attributes->>'pair' = $1
		ORDER BY seq DESC
		LIMIT $2`,
		key.String(), limit)
	if err != nil {
		return nil, fmt.Errorf("event_repo.ListByPair: %w", err)
	}
	out := make([]domain.Event, 0, len(rows))
	for _, row := range rows {
		ev, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}
