package query

import (
	"context"
	"fmt"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func batchTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	database, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	database.SetMaxOpenConns(1)
	_, err = database.Exec(`
CREATE TABLE users (
  id TEXT PRIMARY KEY,
  first_name TEXT,
  status TEXT NOT NULL DEFAULT 'active' CHECK (status <> 'forbidden'),
  updated_at TIMESTAMP
)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return database
}

func seedUsers(t *testing.T, database *sqlx.DB, n int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("user-%03d", i)
		if _, err := database.Exec(`INSERT INTO users (id, first_name) VALUES ($1, $2)`, id, "old"); err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func TestBatchUpdaterChunksAndCommits(t *testing.T) {
	database := batchTestDB(t)
	ids := seedUsers(t, database, 250)

	updates := make([]BatchUpdate, 0, len(ids))
	for _, id := range ids {
		updates = append(updates, BatchUpdate{ID: id, Data: map[string]interface{}{"first_name": "new"}})
	}

	updater := NewBatchUpdater([]string{"first_name", "status"}, 100)
	result, err := updater.Execute(context.Background(), database, "users", updates)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(result.ChunkSizes) != 3 || result.ChunkSizes[0] != 100 || result.ChunkSizes[2] != 50 {
		t.Fatalf("unexpected chunking %v", result.ChunkSizes)
	}
	if result.Committed != 3 || result.RowsUpdated != 250 || result.FailedChunk != -1 {
		t.Fatalf("unexpected result %+v", result)
	}

	var updated int
	if err := database.Get(&updated, `SELECT COUNT(*) FROM users WHERE first_name = 'new'`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if updated != 250 {
		t.Fatalf("expected 250 updated rows, got %d", updated)
	}
}

func TestBatchUpdaterRejectsUnknownColumn(t *testing.T) {
	database := batchTestDB(t)
	seedUsers(t, database, 1)

	updater := NewBatchUpdater([]string{"first_name"}, 100)
	_, err := updater.Execute(context.Background(), database, "users", []BatchUpdate{
		{ID: "user-000", Data: map[string]interface{}{"first_name": "x"}},
		{ID: "user-000", Data: map[string]interface{}{"password_hash": "pwned"}},
	})
	if err == nil {
		t.Fatal("expected whitelist rejection")
	}
	// The rejection happens before any SQL runs.
	var touched int
	if err := database.Get(&touched, `SELECT COUNT(*) FROM users WHERE first_name = 'x'`); err != nil {
		t.Fatalf("count: %v", err)
	}
	if touched != 0 {
		t.Fatal("no chunk may run when validation fails")
	}
}

func TestBatchUpdaterMidChunkFailure(t *testing.T) {
	database := batchTestDB(t)
	ids := seedUsers(t, database, 6)

	updates := make([]BatchUpdate, 0, len(ids))
	for i, id := range ids {
		data := map[string]interface{}{"first_name": "new"}
		if i == 3 {
			// Violates the CHECK constraint inside the second chunk.
			data["status"] = "forbidden"
		}
		updates = append(updates, BatchUpdate{ID: id, Data: data})
	}

	updater := NewBatchUpdater([]string{"first_name", "status"}, 2)
	result, err := updater.Execute(context.Background(), database, "users", updates)
	if err == nil {
		t.Fatal("expected chunk failure")
	}
	if result.FailedChunk != 1 || result.Committed != 1 || result.RowsUpdated != 2 {
		t.Fatalf("unexpected result %+v", result)
	}

	var updated int
	if err := database.Get(&updated, `SELECT COUNT(*) FROM users WHERE first_name = 'new'`); err != nil {
		t.Fatalf("count: %v", err)
	}
	// Chunk 0 committed, chunk 1 rolled back, chunk 2 never ran.
	if updated != 2 {
		t.Fatalf("expected 2 committed rows, got %d", updated)
	}
}
