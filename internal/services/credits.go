package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"eduai-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrInsufficientCredits is returned when a spend would drive the balance
// negative. The balance check and decrement happen in one conditional
// UPDATE, so concurrent spends cannot race past the invariant.
var ErrInsufficientCredits = ServiceError{Status: 402, Message: "Insufficient credits"}

// SpendCredits debits amount from the user and appends a usage row to the
// ledger. Returns the recorded transaction.
func SpendCredits(ctx context.Context, db *sqlx.DB, userID string, amount int, description string) (models.CreditTransaction, error) {
	return applyCredits(ctx, db, userID, -amount, models.TxUsage, description, nil)
}

// GrantCredits credits amount to the user under the given transaction
// type (purchase, refund, bonus or admin_adjustment).
func GrantCredits(ctx context.Context, db *sqlx.DB, userID string, amount int, txType, description string, subscriptionID *string) (models.CreditTransaction, error) {
	return applyCredits(ctx, db, userID, amount, txType, description, subscriptionID)
}

// RefundCredits reverses a spend, typically after a failed AI call.
func RefundCredits(ctx context.Context, db *sqlx.DB, userID string, amount int, description string) (models.CreditTransaction, error) {
	return applyCredits(ctx, db, userID, amount, models.TxRefund, description, nil)
}

func applyCredits(ctx context.Context, db *sqlx.DB, userID string, delta int, txType, description string, subscriptionID *string) (models.CreditTransaction, error) {
	if delta == 0 {
		return models.CreditTransaction{}, ErrBadRequest("Amount must be non-zero")
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return models.CreditTransaction{}, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var after int
	err = tx.GetContext(ctx, &after, `
UPDATE users
SET credits_balance = credits_balance + $1, updated_at = $2
WHERE id = $3 AND credits_balance + $1 >= 0
RETURNING credits_balance
`, delta, now, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if checkErr := tx.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID); checkErr == nil && !exists {
				return models.CreditTransaction{}, ErrNotFound("User not found")
			}
			return models.CreditTransaction{}, ErrInsufficientCredits
		}
		return models.CreditTransaction{}, err
	}

	record := models.CreditTransaction{
		ID:                    uuid.NewString(),
		UserID:                userID,
		TransactionType:       txType,
		Amount:                delta,
		BalanceBefore:         after - delta,
		BalanceAfter:          after,
		RelatedSubscriptionID: subscriptionID,
		CreatedAt:             now,
	}
	if description != "" {
		record.Description = &description
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO credit_transactions
  (id, user_id, transaction_type, amount, balance_before, balance_after, description, related_subscription_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, record.ID, record.UserID, record.TransactionType, record.Amount, record.BalanceBefore,
		record.BalanceAfter, record.Description, record.RelatedSubscriptionID, record.CreatedAt)
	if err != nil {
		return models.CreditTransaction{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.CreditTransaction{}, err
	}
	return record, nil
}

// CreditBalance returns the user's current balance.
func CreditBalance(ctx context.Context, db *sqlx.DB, userID string) (int, error) {
	var balance int
	err := db.GetContext(ctx, &balance, `SELECT credits_balance FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound("User not found")
	}
	return balance, err
}

// CreditHistory lists the user's ledger rows, newest first.
func CreditHistory(ctx context.Context, db *sqlx.DB, userID string, limit, offset int) ([]models.CreditTransaction, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	items := []models.CreditTransaction{}
	err := db.SelectContext(ctx, &items, `
SELECT id, user_id, transaction_type, amount, balance_before, balance_after,
       description, related_subscription_id, created_at
FROM credit_transactions
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	return items, err
}
