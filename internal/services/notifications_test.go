package services

import (
	"context"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestCreateNotificationValidation(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	if _, err := CreateNotification(ctx, database, NewNotification{
		Severity: "info", Type: "system", Title: "t", Message: "m",
	}); err == nil {
		t.Fatal("a notification without an addressee must be rejected")
	}
	if _, err := CreateNotification(ctx, database, NewNotification{
		UserID: strPtr("u1"), SchoolID: strPtr("s1"),
		Severity: "info", Type: "system", Title: "t", Message: "m",
	}); err == nil {
		t.Fatal("a notification with both addressees must be rejected")
	}
	if _, err := CreateNotification(ctx, database, NewNotification{
		UserID: strPtr("u1"), Severity: "critical", Type: "system", Title: "t", Message: "m",
	}); err == nil {
		t.Fatal("an unknown severity must be rejected")
	}

	record, err := CreateNotification(ctx, database, NewNotification{
		UserID: strPtr("u1"), Type: "system", Title: "t", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if record.Severity != "info" {
		t.Fatalf("empty severity defaults to info, got %s", record.Severity)
	}
}

func TestListNotificationsUserAndSchool(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	mustCreate := func(n NewNotification) {
		t.Helper()
		if _, err := CreateNotification(ctx, database, n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	mustCreate(NewNotification{UserID: strPtr("u1"), Type: "system", Title: "direct", Message: "m"})
	mustCreate(NewNotification{SchoolID: strPtr("s1"), Type: "system", Title: "school", Message: "m"})
	mustCreate(NewNotification{UserID: strPtr("u2"), Type: "system", Title: "other", Message: "m"})

	items, err := ListNotificationsForUser(ctx, database, "u1", strPtr("s1"), 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected direct plus school notifications, got %d", len(items))
	}

	// Without a school only the direct one shows.
	items, err = ListNotificationsForUser(ctx, database, "u1", nil, 20, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Title != "direct" {
		t.Fatalf("unexpected items %v", items)
	}
}

func TestMarkNotificationRead(t *testing.T) {
	database := testDB(t)
	ctx := context.Background()

	record, err := CreateNotification(ctx, database, NewNotification{
		UserID: strPtr("u1"), Type: "system", Title: "t", Message: "m",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := MarkNotificationRead(ctx, database, record.ID, "u1", nil)
	if err != nil || !ok {
		t.Fatalf("first read must succeed, got %t (%v)", ok, err)
	}

	count, err := UnreadNotificationCount(ctx, database, "u1", nil)
	if err != nil || count != 0 {
		t.Fatalf("expected no unread left, got %d (%v)", count, err)
	}

	// Marking again is an idempotent success.
	ok, err = MarkNotificationRead(ctx, database, record.ID, "u1", nil)
	if err != nil || !ok {
		t.Fatalf("second read must be idempotent, got %t (%v)", ok, err)
	}

	// Someone else's notification looks like it does not exist.
	ok, err = MarkNotificationRead(ctx, database, record.ID, "u2", nil)
	if err != nil || ok {
		t.Fatalf("foreign notification must report not found, got %t (%v)", ok, err)
	}
}
