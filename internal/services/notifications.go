package services

import (
	"context"
	"time"

	"eduai-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// NewNotification describes a notification to create. Exactly one of
// UserID and SchoolID must be set.
type NewNotification struct {
	UserID   *string
	SchoolID *string
	Severity string
	Type     string
	Title    string
	Message  string
	Meta     *string
}

// CreateNotification inserts and returns the row.
func CreateNotification(ctx context.Context, db *sqlx.DB, n NewNotification) (models.Notification, error) {
	if (n.UserID == nil) == (n.SchoolID == nil) {
		return models.Notification{}, ErrBadRequest("Notification needs exactly one addressee")
	}
	severity := n.Severity
	switch severity {
	case models.SeverityInfo, models.SeverityWarning, models.SeverityError:
	case "":
		severity = models.SeverityInfo
	default:
		return models.Notification{}, ErrBadRequest("Unknown severity")
	}
	record := models.Notification{
		ID:        uuid.NewString(),
		UserID:    n.UserID,
		SchoolID:  n.SchoolID,
		Severity:  severity,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Meta:      n.Meta,
		CreatedAt: time.Now().UTC(),
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO notifications (id, user_id, school_id, severity, type, title, message, meta, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
`, record.ID, record.UserID, record.SchoolID, record.Severity, record.Type,
		record.Title, record.Message, record.Meta, record.CreatedAt)
	if err != nil {
		return models.Notification{}, err
	}
	return record, nil
}

// ListNotificationsForUser returns notifications addressed to the user
// directly or to their school, newest first.
func ListNotificationsForUser(ctx context.Context, db *sqlx.DB, userID string, schoolID *string, limit, offset int) ([]models.Notification, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items := []models.Notification{}
	err := db.SelectContext(ctx, &items, `
SELECT id, user_id, school_id, severity, type, title, message, meta, read_at, created_at
FROM notifications
WHERE user_id = $1 OR (school_id IS NOT NULL AND school_id = $2)
ORDER BY created_at DESC
LIMIT $3 OFFSET $4
`, userID, schoolID, limit, offset)
	return items, err
}

// UnreadNotificationCount counts unread notifications for the badge.
func UnreadNotificationCount(ctx context.Context, db *sqlx.DB, userID string, schoolID *string) (int, error) {
	var count int
	err := db.GetContext(ctx, &count, `
SELECT count(*)
FROM notifications
WHERE (user_id = $1 OR (school_id IS NOT NULL AND school_id = $2)) AND read_at IS NULL
`, userID, schoolID)
	return count, err
}

// MarkNotificationRead stamps read_at when the row is addressed to the
// user or their school. Returns false when nothing matched, which the
// route layer maps to 404. Already-read rows stay at their first read
// time.
func MarkNotificationRead(ctx context.Context, db *sqlx.DB, notificationID, userID string, schoolID *string) (bool, error) {
	res, err := db.ExecContext(ctx, `
UPDATE notifications
SET read_at = $1
WHERE id = $2
  AND read_at IS NULL
  AND (user_id = $3 OR (school_id IS NOT NULL AND school_id = $4))
`, time.Now().UTC(), notificationID, userID, schoolID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected > 0 {
		return true, nil
	}
	// Distinguish "already read" (idempotent success) from "not yours".
	var readable bool
	err = db.GetContext(ctx, &readable, `
SELECT EXISTS(
  SELECT 1 FROM notifications
  WHERE id = $1 AND (user_id = $2 OR (school_id IS NOT NULL AND school_id = $3))
)`, notificationID, userID, schoolID)
	return readable, err
}
