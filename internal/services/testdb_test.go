package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const testSchema = `
CREATE TABLE schools (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  city TEXT,
  address TEXT,
  phone TEXT,
  website TEXT,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  first_name TEXT,
  last_name TEXT,
  role TEXT NOT NULL,
  school_id TEXT REFERENCES schools(id),
  credits_balance INTEGER NOT NULL DEFAULT 0 CHECK (credits_balance >= 0),
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  email_verified BOOLEAN NOT NULL DEFAULT FALSE,
  status TEXT NOT NULL DEFAULT 'active',
  last_login_at TIMESTAMP,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE credit_transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  transaction_type TEXT NOT NULL,
  amount INTEGER NOT NULL,
  balance_before INTEGER NOT NULL,
  balance_after INTEGER NOT NULL,
  description TEXT,
  related_subscription_id TEXT,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT,
  school_id TEXT,
  severity TEXT NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  message TEXT NOT NULL,
  meta TEXT,
  read_at TIMESTAMP,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE chat_sessions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  title TEXT NOT NULL,
  total_messages INTEGER NOT NULL DEFAULT 0,
  credits_used INTEGER NOT NULL DEFAULT 0,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at TIMESTAMP NOT NULL,
  updated_at TIMESTAMP NOT NULL
);
CREATE TABLE chat_messages (
  id TEXT PRIMARY KEY,
  session_id TEXT NOT NULL,
  message_type TEXT NOT NULL,
  content TEXT NOT NULL,
  credits_cost INTEGER NOT NULL DEFAULT 0,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE generated_files (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  file_type TEXT NOT NULL,
  title TEXT NOT NULL,
  content TEXT NOT NULL,
  created_at TIMESTAMP NOT NULL
);
CREATE TABLE shared_materials (
  id TEXT PRIMARY KEY,
  file_id TEXT NOT NULL,
  school_id TEXT NOT NULL,
  shared_by TEXT NOT NULL,
  shared_at TIMESTAMP NOT NULL,
  UNIQUE (file_id, school_id)
);
`

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	database.SetMaxOpenConns(1)
	if _, err := database.Exec(testSchema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	return database
}

func createTestUser(t *testing.T, database *sqlx.DB, email string, credits int) string {
	t.Helper()
	id := uuid.NewString()
	now := time.Now().UTC()
	_, err := database.ExecContext(context.Background(), `
INSERT INTO users (id, email, password_hash, role, credits_balance, is_active, email_verified, status, created_at, updated_at)
VALUES ($1,$2,'x','teacher',$3,TRUE,TRUE,'active',$4,$5)
`, id, email, credits, now, now)
	if err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return id
}
