// Package store provides the pgx/v5-backed Postgres repositories behind
// internal/ledger, internal/outcomeledger, and internal/eventstore's
// Repository interfaces.
package store

import (
	"context"
	_ "embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

// Pool wraps a pgxpool.Pool and is shared by every repository in this
// package, mirroring the single-pool-per-process pattern used for a
// pgx-backed trading service.
type Pool struct {
	pool *pgxpool.Pool
}

func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Pool{pool: pool}, nil
}

func (p *Pool) Close() { p.pool.Close() }

// Migrate runs the embedded schema. It is additive and idempotent
// (CREATE TABLE/INDEX IF NOT EXISTS), safe to run on every process start.
func (p *Pool) Migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, Schema)
	return err
}

// querier is the subset of pgxpool.Pool and pgx.Tx every repository method
// needs. Passing a nil ledger.Tx resolves to the pool itself; a non-nil one
// resolves to the caller's open pgx.Tx, joining its writes.
type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// resolve returns tx type-asserted to pgx.Tx if non-nil, else the pool.
func (p *Pool) resolve(tx interface{}) querier {
	if tx == nil {
		return p.pool
	}
	return tx.(pgx.Tx)
}
