package store

import (
	"context"

	"github.com/openalpha/predictionx/internal/eventstore"
	"github.com/openalpha/predictionx/internal/ledger"
)

// EventStoreRepository backs internal/eventstore.Repository with Postgres.
type EventStoreRepository struct {
	pool *Pool
}

func NewEventStoreRepository(pool *Pool) *EventStoreRepository {
	return &EventStoreRepository{pool: pool}
}

func (r *EventStoreRepository) Append(ctx context.Context, tx ledger.Tx, event eventstore.DomainEvent) (int64, error) {
	q := r.pool.resolve(tx)
	var id int64
	err := q.QueryRow(ctx,
		`INSERT INTO domain_events (event_type, payload, occurred_at, market_id, user_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		event.EventType, event.Payload, event.OccurredAt, event.MarketID, event.UserID,
	).Scan(&id)
	return id, err
}

func (r *EventStoreRepository) ByMarket(ctx context.Context, marketID string) ([]eventstore.DomainEvent, error) {
	rows, err := r.pool.pool.Query(ctx,
		`SELECT id, event_type, payload, occurred_at, market_id, user_id FROM domain_events WHERE market_id = $1 ORDER BY id ASC`,
		marketID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDomainEvents(rows)
}

func (r *EventStoreRepository) ByUser(ctx context.Context, userID string) ([]eventstore.DomainEvent, error) {
	rows, err := r.pool.pool.Query(ctx,
		`SELECT id, event_type, payload, occurred_at, market_id, user_id FROM domain_events WHERE user_id = $1 ORDER BY id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDomainEvents(rows)
}

func scanDomainEvents(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]eventstore.DomainEvent, error) {
	var out []eventstore.DomainEvent
	for rows.Next() {
		var ev eventstore.DomainEvent
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.Payload, &ev.OccurredAt, &ev.MarketID, &ev.UserID); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
