package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"eduai-backend-go/internal/ai"
	"eduai-backend-go/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const chatHistoryLimit = 30

// CreateChatSession opens a new tutoring conversation for the user.
func CreateChatSession(ctx context.Context, db *sqlx.DB, userID, title string) (models.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New conversation"
	}
	now := time.Now().UTC()
	session := models.ChatSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := db.ExecContext(ctx, `
INSERT INTO chat_sessions (id, user_id, title, total_messages, credits_used, is_active, created_at, updated_at)
VALUES ($1,$2,$3,0,0,$4,$5,$5)
`, session.ID, session.UserID, session.Title, session.IsActive, now)
	if err != nil {
		return models.ChatSession{}, err
	}
	return session, nil
}

// GetChatSession loads a session owned by userID.
func GetChatSession(ctx context.Context, db *sqlx.DB, sessionID, userID string) (models.ChatSession, error) {
	var session models.ChatSession
	err := db.GetContext(ctx, &session, `
SELECT id, user_id, title, total_messages, credits_used, is_active, created_at, updated_at
FROM chat_sessions
WHERE id = $1 AND user_id = $2
`, sessionID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChatSession{}, ErrNotFound("Conversation not found")
	}
	return session, err
}

// ListChatSessions returns the user's conversations, most recent first.
func ListChatSessions(ctx context.Context, db *sqlx.DB, userID string, limit, offset int) ([]models.ChatSession, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	items := []models.ChatSession{}
	err := db.SelectContext(ctx, &items, `
SELECT id, user_id, title, total_messages, credits_used, is_active, created_at, updated_at
FROM chat_sessions
WHERE user_id = $1
ORDER BY updated_at DESC
LIMIT $2 OFFSET $3
`, userID, limit, offset)
	return items, err
}

// ListChatMessages returns a session's messages oldest first, after
// checking ownership.
func ListChatMessages(ctx context.Context, db *sqlx.DB, sessionID, userID string) ([]models.ChatMessage, error) {
	if _, err := GetChatSession(ctx, db, sessionID, userID); err != nil {
		return nil, err
	}
	items := []models.ChatMessage{}
	err := db.SelectContext(ctx, &items, `
SELECT id, session_id, message_type, content, credits_cost, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at ASC
`, sessionID)
	return items, err
}

// AppendChatMessage stores one message and bumps the session counters.
func AppendChatMessage(ctx context.Context, db *sqlx.DB, sessionID, messageType, content string, creditsCost int) (models.ChatMessage, error) {
	now := time.Now().UTC()
	message := models.ChatMessage{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		MessageType: messageType,
		Content:     content,
		CreditsCost: creditsCost,
		CreatedAt:   now,
	}
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ChatMessage{}, err
	}
	defer func() { _ = tx.Rollback() }()
	_, err = tx.ExecContext(ctx, `
INSERT INTO chat_messages (id, session_id, message_type, content, credits_cost, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, message.ID, message.SessionID, message.MessageType, message.Content, message.CreditsCost, message.CreatedAt)
	if err != nil {
		return models.ChatMessage{}, err
	}
	_, err = tx.ExecContext(ctx, `
UPDATE chat_sessions
SET total_messages = total_messages + 1,
    credits_used = credits_used + $1,
    updated_at = $2
WHERE id = $3
`, creditsCost, now, sessionID)
	if err != nil {
		return models.ChatMessage{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.ChatMessage{}, err
	}
	return message, nil
}

// ChatHistory builds the provider message list for a session: a tutoring
// system prompt followed by the recent turns, oldest first.
func ChatHistory(ctx context.Context, db *sqlx.DB, sessionID string, systemPrompt string) ([]ai.Message, error) {
	rows := []models.ChatMessage{}
	err := db.SelectContext(ctx, &rows, `
SELECT id, session_id, message_type, content, credits_cost, created_at
FROM chat_messages
WHERE session_id = $1
ORDER BY created_at DESC
LIMIT $2
`, sessionID, chatHistoryLimit)
	if err != nil {
		return nil, err
	}
	messages := make([]ai.Message, 0, len(rows)+1)
	if systemPrompt != "" {
		messages = append(messages, ai.Message{Role: "system", Content: systemPrompt})
	}
	for i := len(rows) - 1; i >= 0; i-- {
		role := "user"
		if rows[i].MessageType == "assistant" {
			role = "assistant"
		}
		messages = append(messages, ai.Message{Role: role, Content: rows[i].Content})
	}
	return messages, nil
}
