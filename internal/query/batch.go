package query

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// DefaultChunkSize is the number of row updates committed per transaction.
const DefaultChunkSize = 100

// BatchUpdate is one partial row update keyed by primary id.
type BatchUpdate struct {
	ID   string
	Data map[string]interface{}
}

// BatchResult reports which chunks committed. Chunks are processed
// sequentially; a failure stops processing, earlier chunks stay committed
// and later chunks are never attempted.
type BatchResult struct {
	ChunkSizes  []int `json:"chunkSizes"`
	Committed   int   `json:"committedChunks"`
	RowsUpdated int   `json:"rowsUpdated"`
	FailedChunk int   `json:"failedChunk"` // -1 when all chunks committed
}

// BatchUpdater applies partial updates in fixed-size transactional chunks.
// Column names come from caller data and are interpolated into the SET
// clause, so they are checked against the allowed set before any SQL runs.
type BatchUpdater struct {
	allowed   map[string]bool
	chunkSize int
	now       func() time.Time
}

func NewBatchUpdater(allowedColumns []string, chunkSize int) *BatchUpdater {
	if chunkSize < 1 {
		chunkSize = DefaultChunkSize
	}
	allowed := make(map[string]bool, len(allowedColumns))
	for _, column := range allowedColumns {
		allowed[column] = true
	}
	return &BatchUpdater{allowed: allowed, chunkSize: chunkSize, now: time.Now}
}

// Execute runs the updates against table in sequential chunks. The
// returned BatchResult is valid even when err is non-nil.
func (u *BatchUpdater) Execute(ctx context.Context, db *sqlx.DB, table string, updates []BatchUpdate) (BatchResult, error) {
	result := BatchResult{FailedChunk: -1}
	if len(updates) == 0 {
		return result, nil
	}
	for _, update := range updates {
		for column := range update.Data {
			if !u.allowed[column] {
				return result, fmt.Errorf("column %q not allowed in batch update", column)
			}
		}
	}
	chunks := chunkUpdates(updates, u.chunkSize)
	for _, chunk := range chunks {
		result.ChunkSizes = append(result.ChunkSizes, len(chunk))
	}
	for i, chunk := range chunks {
		rows, err := u.executeChunk(ctx, db, table, chunk)
		if err != nil {
			result.FailedChunk = i
			return result, fmt.Errorf("batch chunk %d: %w", i, err)
		}
		result.Committed++
		result.RowsUpdated += rows
	}
	return result, nil
}

func (u *BatchUpdater) executeChunk(ctx context.Context, db *sqlx.DB, table string, chunk []BatchUpdate) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	rows := 0
	for _, update := range chunk {
		query, params := buildUpdate(table, update, u.now().UTC())
		res, err := tx.ExecContext(ctx, query, params...)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		if affected, err := res.RowsAffected(); err == nil {
			rows += int(affected)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return rows, nil
}

func buildUpdate(table string, update BatchUpdate, now time.Time) (string, []interface{}) {
	columns := make([]string, 0, len(update.Data))
	for column := range update.Data {
		columns = append(columns, column)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	params := make([]interface{}, 0, len(columns)+2)
	for _, column := range columns {
		params = append(params, update.Data[column])
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(params)))
	}
	params = append(params, now)
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(params)))
	params = append(params, update.ID)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(sets, ", "), len(params))
	return query, params
}

func chunkUpdates(updates []BatchUpdate, size int) [][]BatchUpdate {
	chunks := make([][]BatchUpdate, 0, (len(updates)+size-1)/size)
	for start := 0; start < len(updates); start += size {
		end := start + size
		if end > len(updates) {
			end = len(updates)
		}
		chunks = append(chunks, updates[start:end])
	}
	return chunks
}
