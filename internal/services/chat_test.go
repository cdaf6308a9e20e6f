package services

import (
	"context"
	"errors"
	"testing"
)

func TestChatSessionOwnership(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	session, err := CreateChatSession(ctx, database, "u1", "Fractions help")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := GetChatSession(ctx, database, session.ID, "u1"); err != nil {
		t.Fatalf("owner lookup: %v", err)
	}
	_, err = GetChatSession(ctx, database, session.ID, "u2")
	var serviceErr ServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Status != 404 {
		t.Fatalf("foreign session must read as not found, got %v", err)
	}
	if _, err := ListChatMessages(ctx, database, session.ID, "u2"); err == nil {
		t.Fatal("foreign message listing must be rejected")
	}
}

func TestAppendChatMessageBumpsCounters(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	session, err := CreateChatSession(ctx, database, "u1", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.Title != "New conversation" {
		t.Fatalf("blank title gets the default, got %q", session.Title)
	}

	if _, err := AppendChatMessage(ctx, database, session.ID, "user", "What is 2+2?", 0); err != nil {
		t.Fatalf("append user: %v", err)
	}
	if _, err := AppendChatMessage(ctx, database, session.ID, "assistant", "4.", 1); err != nil {
		t.Fatalf("append assistant: %v", err)
	}

	reloaded, err := GetChatSession(ctx, database, session.ID, "u1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.TotalMessages != 2 || reloaded.CreditsUsed != 1 {
		t.Fatalf("unexpected counters %+v", reloaded)
	}

	messages, err := ListChatMessages(ctx, database, session.ID, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(messages) != 2 || messages[0].MessageType != "user" || messages[1].MessageType != "assistant" {
		t.Fatalf("messages must come back oldest first, got %v", messages)
	}
}

func TestChatHistoryShapesProviderMessages(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	session, err := CreateChatSession(ctx, database, "u1", "t")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := AppendChatMessage(ctx, database, session.ID, "user", "hello", 0); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := AppendChatMessage(ctx, database, session.ID, "assistant", "hi", 1); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := ChatHistory(ctx, database, session.ID, "You are a tutor.")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected system prompt plus two turns, got %d", len(history))
	}
	if history[0].Role != "system" || history[1].Role != "user" || history[2].Role != "assistant" {
		t.Fatalf("unexpected roles %v", history)
	}

	// Without a system prompt the turns stand alone.
	history, err = ChatHistory(ctx, database, session.ID, "")
	if err != nil || len(history) != 2 {
		t.Fatalf("expected bare history, got %v (%v)", history, err)
	}
}
