package db

import (
	"context"
	"database/sql"

	"eduai-backend-go/internal/query"

	"github.com/jmoiron/sqlx"
)

// Pool wraps the sqlx connection pool with optional per-query timing. A
// query executed under a name is recorded in the injected monitor; unnamed
// queries pass straight through.
type Pool struct {
	DB      *sqlx.DB
	Monitor *query.Monitor
}

func NewPool(db *sqlx.DB, monitor *query.Monitor) *Pool {
	return &Pool{DB: db, Monitor: monitor}
}

func (p *Pool) Select(ctx context.Context, name string, dest interface{}, sqlText string, params ...interface{}) error {
	if name != "" && p.Monitor != nil {
		defer p.Monitor.StartTimer(name)()
	}
	return p.DB.SelectContext(ctx, dest, sqlText, params...)
}

func (p *Pool) Get(ctx context.Context, name string, dest interface{}, sqlText string, params ...interface{}) error {
	if name != "" && p.Monitor != nil {
		defer p.Monitor.StartTimer(name)()
	}
	return p.DB.GetContext(ctx, dest, sqlText, params...)
}

func (p *Pool) Exec(ctx context.Context, name string, sqlText string, params ...interface{}) (sql.Result, error) {
	if name != "" && p.Monitor != nil {
		defer p.Monitor.StartTimer(name)()
	}
	return p.DB.ExecContext(ctx, sqlText, params...)
}

// Stats exposes the pool counters the driver itself maintains; derived
// event counting drifted in earlier versions, so the source of truth is
// database/sql.
func (p *Pool) Stats() sql.DBStats {
	return p.DB.Stats()
}
