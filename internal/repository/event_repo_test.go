package repository

import (
	"context"
	"testing"
	"time"

	"github.com/arketic/taskmine/internal/model"
	"github.com/arketic/taskmine/internal/testutil"
)

func appendEvent(t *testing.T, repo *EventRepository, ts time.Time, eventType, app, title string) {
	t.Helper()
	err := repo.Append(context.Background(), &model.ActivityEvent{
		Timestamp:   ts.Format(model.TimestampLayout),
		WindowTitle: title,
		Application: app,
		EventType:   eventType,
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}
}

func TestEventRepositoryQueryFilters(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	appendEvent(t, repo, base, model.EventWindowChange, "code.exe", "main.go")
	appendEvent(t, repo, base.Add(time.Minute), model.EventKeyboard, "code.exe", "main.go")
	appendEvent(t, repo, base.Add(2*time.Minute), model.EventWindowChange, "chrome.exe", "docs")

	byType, err := repo.Query(ctx, EventFilter{EventType: model.EventWindowChange})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("window_change events=%d, want 2", len(byType))
	}
	// 时间戳降序
	if byType[0].Application != "chrome.exe" {
		t.Fatalf("byType[0].Application=%q, want chrome.exe", byType[0].Application)
	}

	byRange, err := repo.Query(ctx, EventFilter{
		StartTime: base.Add(30 * time.Second).Format(model.TimestampLayout),
		EndTime:   base.Add(90 * time.Second).Format(model.TimestampLayout),
	})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(byRange) != 1 || byRange[0].EventType != model.EventKeyboard {
		t.Fatalf("byRange=%+v, want single keyboard event", byRange)
	}

	limited, err := repo.Query(ctx, EventFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("limited=%d, want 1", len(limited))
	}
}

func TestEventRepositoryWindowChangesSinceAscending(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	appendEvent(t, repo, base.Add(2*time.Minute), model.EventWindowChange, "b.exe", "b")
	appendEvent(t, repo, base, model.EventWindowChange, "a.exe", "a")
	appendEvent(t, repo, base.Add(time.Minute), model.EventKeyboard, "a.exe", "a")

	events, err := repo.WindowChangesSince(ctx, base.Format(model.TimestampLayout))
	if err != nil {
		t.Fatalf("WindowChangesSince error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("events=%d, want 2 (keyboard excluded)", len(events))
	}
	if events[0].Application != "a.exe" || events[1].Application != "b.exe" {
		t.Fatalf("order wrong: %+v", events)
	}
}

func TestEventRepositoryDeleteOldEvents(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewEventRepository(db)
	ctx := context.Background()

	appendEvent(t, repo, time.Now().AddDate(0, 0, -100), model.EventWindowChange, "old.exe", "old")
	appendEvent(t, repo, time.Now().AddDate(0, 0, -1), model.EventWindowChange, "new.exe", "new")

	deleted, err := repo.DeleteOldEvents(ctx, 90)
	if err != nil {
		t.Fatalf("DeleteOldEvents error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("deleted=%d, want 1", deleted)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count error: %v", err)
	}
	if count != 1 {
		t.Fatalf("count=%d, want 1", count)
	}
}
