package services

import (
	"context"
	"time"

	"eduai-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LogAIRequest appends one row to the ai_requests analytics log. Failures
// here must never break the user-facing call, so callers log and move on.
func LogAIRequest(ctx context.Context, db *sqlx.DB, record models.AIRequest) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.Priority == "" {
		record.Priority = "normal"
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO ai_requests
  (id, user_id, request_type, provider_id, model_used, priority, parameters,
   tokens_used, processing_time_ms, cost, success, cached, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
`, record.ID, record.UserID, record.RequestType, record.ProviderID, record.ModelUsed,
		record.Priority, record.Parameters, record.TokensUsed, record.ProcessingTimeMs,
		record.Cost, record.Success, record.Cached, record.CreatedAt)
	return err
}

// AIUsageDay aggregates one day of AI requests.
type AIUsageDay struct {
	Day       string  `db:"day" json:"day"`
	Requests  int     `db:"requests" json:"requests"`
	Tokens    int     `db:"tokens" json:"tokens"`
	Cost      float64 `db:"cost" json:"cost"`
	Failures  int     `db:"failures" json:"failures"`
	CacheHits int     `db:"cache_hits" json:"cacheHits"`
}

// AIUsageByDay aggregates the last days of request activity.
func AIUsageByDay(ctx context.Context, db *sqlx.DB, days int) ([]AIUsageDay, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	items := []AIUsageDay{}
	err := db.SelectContext(ctx, &items, `
SELECT substr(cast(created_at AS TEXT), 1, 10) AS day,
       count(*) AS requests,
       coalesce(sum(tokens_used), 0) AS tokens,
       coalesce(sum(cost), 0) AS cost,
       count(*) FILTER (WHERE NOT success) AS failures,
       count(*) FILTER (WHERE cached) AS cache_hits
FROM ai_requests
WHERE created_at >= $1
GROUP BY day
ORDER BY day
`, since)
	return items, err
}

// AIModelUsage aggregates requests per model.
type AIModelUsage struct {
	Model    string  `db:"model_used" json:"model"`
	Requests int     `db:"requests" json:"requests"`
	Tokens   int     `db:"tokens" json:"tokens"`
	Cost     float64 `db:"cost" json:"cost"`
}

func AIUsageByModel(ctx context.Context, db *sqlx.DB, days int) ([]AIModelUsage, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	items := []AIModelUsage{}
	err := db.SelectContext(ctx, &items, `
SELECT model_used,
       count(*) AS requests,
       coalesce(sum(tokens_used), 0) AS tokens,
       coalesce(sum(cost), 0) AS cost
FROM ai_requests
WHERE created_at >= $1
GROUP BY model_used
ORDER BY requests DESC
`, since)
	return items, err
}

// CreditUsageSummary totals ledger movement per transaction type.
type CreditUsageSummary struct {
	TransactionType string `db:"transaction_type" json:"transactionType"`
	Transactions    int    `db:"transactions" json:"transactions"`
	Credits         int    `db:"credits" json:"credits"`
}

func CreditUsageByType(ctx context.Context, db *sqlx.DB, days int) ([]CreditUsageSummary, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	since := time.Now().UTC().AddDate(0, 0, -days)
	items := []CreditUsageSummary{}
	err := db.SelectContext(ctx, &items, `
SELECT transaction_type,
       count(*) AS transactions,
       coalesce(sum(amount), 0) AS credits
FROM credit_transactions
WHERE created_at >= $1
GROUP BY transaction_type
ORDER BY transaction_type
`, since)
	return items, err
}
