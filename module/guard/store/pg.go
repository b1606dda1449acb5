package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"QGuard/tools/errs"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS guard_tables (
    table_name TEXT PRIMARY KEY,
    doc        JSONB NOT NULL
)`

// Postgres 每张表一行，文档放 jsonb。
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres 建池并确保表存在。
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errs.WrapMsg(err, "pg connect", "dsn", dsn)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "pg ensure schema")
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Load(ctx context.Context, table string) ([]byte, error) {
	var doc []byte
	err := p.pool.QueryRow(ctx,
		`SELECT doc FROM guard_tables WHERE table_name = $1`, table).Scan(&doc)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "pg load table", "table", table)
	}
	return doc, nil
}

func (p *Postgres) Save(ctx context.Context, table string, doc []byte) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO guard_tables (table_name, doc) VALUES ($1, $2)
		 ON CONFLICT (table_name) DO UPDATE SET doc = EXCLUDED.doc`,
		table, doc)
	if err != nil {
		return errs.WrapMsg(err, "pg save table", "table", table)
	}
	return nil
}

func (p *Postgres) Close() { p.pool.Close() }
