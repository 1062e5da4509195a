package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
)

// LedgerRepository backs internal/ledger.Repository with Postgres.
type LedgerRepository struct {
	pool *Pool
}

func NewLedgerRepository(pool *Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) Begin(ctx context.Context) (ledger.Tx, error) {
	return r.pool.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
}

func (r *LedgerRepository) Commit(ctx context.Context, tx ledger.Tx) error {
	return tx.(pgx.Tx).Commit(ctx)
}

func (r *LedgerRepository) Rollback(ctx context.Context, tx ledger.Tx) error {
	return tx.(pgx.Tx).Rollback(ctx)
}

func (r *LedgerRepository) InsertAccount(ctx context.Context, tx ledger.Tx, acc ledger.Account) error {
	q := r.pool.resolve(tx)
	_, err := q.Exec(ctx,
		`INSERT INTO accounts (id, name, type, operator_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		acc.ID, acc.Name, acc.Type, acc.OperatorID, acc.CreatedAt,
	)
	return err
}

func (r *LedgerRepository) GetAccount(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Account, error) {
	q := r.pool.resolve(tx)
	row := q.QueryRow(ctx, `SELECT id, name, type, operator_id, created_at FROM accounts WHERE id = $1`, id)
	var acc ledger.Account
	if err := row.Scan(&acc.ID, &acc.Name, &acc.Type, &acc.OperatorID, &acc.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

func (r *LedgerRepository) FirstAccountForOperator(ctx context.Context, tx ledger.Tx, operatorID string) (*ledger.Account, error) {
	q := r.pool.resolve(tx)
	row := q.QueryRow(ctx, `SELECT id, name, type, operator_id, created_at FROM accounts WHERE operator_id = $1 ORDER BY created_at ASC LIMIT 1`, operatorID)
	var acc ledger.Account
	if err := row.Scan(&acc.ID, &acc.Name, &acc.Type, &acc.OperatorID, &acc.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

func (r *LedgerRepository) AccountsForOperator(ctx context.Context, tx ledger.Tx, operatorID string) ([]ledger.Account, error) {
	q := r.pool.resolve(tx)
	rows, err := q.Query(ctx, `SELECT id, name, type, operator_id, created_at FROM accounts WHERE operator_id = $1 ORDER BY created_at ASC`, operatorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Account
	for rows.Next() {
		var acc ledger.Account
		if err := rows.Scan(&acc.ID, &acc.Name, &acc.Type, &acc.OperatorID, &acc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (r *LedgerRepository) InsertTransaction(ctx context.Context, tx ledger.Tx, txn ledger.Transaction) error {
	q := r.pool.resolve(tx)

	joined := tx != nil
	activeTx := tx
	if !joined {
		started, err := r.Begin(ctx)
		if err != nil {
			return err
		}
		activeTx = started
		q = r.pool.resolve(activeTx)
	}

	_, err := q.Exec(ctx,
		`INSERT INTO transactions (id, type, settles_clearing_transaction_id, created_at) VALUES ($1, $2, $3, $4)`,
		txn.ID, txn.Type, txn.SettlesClearingTransactionID, txn.CreatedAt,
	)
	if err != nil {
		if !joined {
			_ = activeTx.(pgx.Tx).Rollback(ctx)
		}
		return fmt.Errorf("store: inserting transaction: %w", err)
	}

	for _, e := range txn.Entries {
		if _, err := q.Exec(ctx,
			`INSERT INTO journal_entries (transaction_id, account_id, amount, direction, phase) VALUES ($1, $2, $3, $4, $5)`,
			txn.ID, e.AccountID, e.Amount, e.Direction, e.Phase,
		); err != nil {
			if !joined {
				_ = activeTx.(pgx.Tx).Rollback(ctx)
			}
			return fmt.Errorf("store: inserting journal entry: %w", err)
		}
	}

	if !joined {
		return activeTx.(pgx.Tx).Commit(ctx)
	}
	return nil
}

func (r *LedgerRepository) GetTransaction(ctx context.Context, tx ledger.Tx, id uuid.UUID) (*ledger.Transaction, error) {
	q := r.pool.resolve(tx)

	row := q.QueryRow(ctx, `SELECT id, type, settles_clearing_transaction_id, created_at FROM transactions WHERE id = $1`, id)
	var txn ledger.Transaction
	if err := row.Scan(&txn.ID, &txn.Type, &txn.SettlesClearingTransactionID, &txn.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT account_id, amount, direction, phase FROM journal_entries WHERE transaction_id = $1 ORDER BY id ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var entry ledger.JournalEntry
		if err := rows.Scan(&entry.AccountID, &entry.Amount, &entry.Direction, &entry.Phase); err != nil {
			return nil, err
		}
		txn.Entries = append(txn.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &txn, nil
}

func (r *LedgerRepository) SumEntries(ctx context.Context, tx ledger.Tx, accountID uuid.UUID, phase *ledger.Phase) (debits, credits money.Amount, err error) {
	q := r.pool.resolve(tx)

	var row pgx.Row
	if phase != nil {
		row = q.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'Debit'), 0), COALESCE(SUM(amount) FILTER (WHERE direction = 'Credit'), 0)
			 FROM journal_entries WHERE account_id = $1 AND phase = $2`,
			accountID, *phase,
		)
	} else {
		row = q.QueryRow(ctx,
			`SELECT COALESCE(SUM(amount) FILTER (WHERE direction = 'Debit'), 0), COALESCE(SUM(amount) FILTER (WHERE direction = 'Credit'), 0)
			 FROM journal_entries WHERE account_id = $1`,
			accountID,
		)
	}

	if scanErr := row.Scan(&debits, &credits); scanErr != nil {
		return money.Zero, money.Zero, scanErr
	}
	return debits, credits, nil
}
