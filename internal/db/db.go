package db

import (
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Open connects to the configured database. Postgres is the production
// path; a sqlite: DSN selects the local-dev file database.
func Open(dsn string) (*sqlx.DB, error) {
	if strings.HasPrefix(dsn, "sqlite:") {
		return openSQLite(strings.TrimPrefix(dsn, "sqlite:"))
	}
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(30 * time.Second)
	db.SetConnMaxLifetime(30 * time.Minute)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}

func openSQLite(path string) (*sqlx.DB, error) {
	if path == "" {
		path = "eduai_asistent.db"
	}
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return db, nil
}
