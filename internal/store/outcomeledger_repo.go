package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/outcomeledger"
)

// OutcomeLedgerRepository backs internal/outcomeledger.Repository with
// Postgres.
type OutcomeLedgerRepository struct {
	pool *Pool
}

func NewOutcomeLedgerRepository(pool *Pool) *OutcomeLedgerRepository {
	return &OutcomeLedgerRepository{pool: pool}
}

func (r *OutcomeLedgerRepository) InsertEntries(ctx context.Context, tx ledger.Tx, entries []outcomeledger.Entry) error {
	q := r.pool.resolve(tx)
	for _, e := range entries {
		if _, err := q.Exec(ctx,
			`INSERT INTO ledger_entries (account_id, asset_type, amount, direction, occurred_at) VALUES ($1, $2, $3, $4, $5)`,
			e.AccountID, e.AssetType, e.Amount, e.Direction, e.OccurredAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *OutcomeLedgerRepository) NetHoldingsByAsset(ctx context.Context, assetType string) (map[uuid.UUID]money.Amount, error) {
	rows, err := r.pool.pool.Query(ctx,
		`SELECT account_id, COALESCE(SUM(amount) FILTER (WHERE direction = 'Debit'), 0) - COALESCE(SUM(amount) FILTER (WHERE direction = 'Credit'), 0) AS net
		 FROM ledger_entries WHERE asset_type = $1 GROUP BY account_id`,
		assetType,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]money.Amount)
	for rows.Next() {
		var accountID uuid.UUID
		var net money.Amount
		if err := rows.Scan(&accountID, &net); err != nil {
			return nil, err
		}
		out[accountID] = net
	}
	return out, rows.Err()
}
