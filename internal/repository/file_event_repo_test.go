package repository

import (
	"context"
	"testing"
	"time"

	"github.com/arketic/taskmine/internal/model"
	"github.com/arketic/taskmine/internal/testutil"
)

func TestFileEventRepositoryCountByType(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewFileEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	events := []struct {
		offset    time.Duration
		eventType string
	}{
		{0, model.FileCreated},
		{time.Minute, model.FileCreated},
		{2 * time.Minute, model.FileModified},
		{-48 * time.Hour, model.FileDeleted}, // since 之前
	}
	for _, e := range events {
		err := repo.Append(ctx, &model.FileEvent{
			Timestamp: base.Add(e.offset).Format(model.TimestampLayout),
			FilePath:  "/downloads/x.csv",
			EventType: e.eventType,
		})
		if err != nil {
			t.Fatalf("Append error: %v", err)
		}
	}

	counts, err := repo.CountByType(ctx, base.Format(model.TimestampLayout))
	if err != nil {
		t.Fatalf("CountByType error: %v", err)
	}
	if counts[model.FileCreated] != 2 || counts[model.FileModified] != 1 {
		t.Fatalf("counts=%v", counts)
	}
	if _, ok := counts[model.FileDeleted]; ok {
		t.Fatalf("counts=%v, deleted event outside range should be excluded", counts)
	}
}

func TestFileEventRepositoryGetSinceAscending(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := NewFileEventRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_ = repo.Append(ctx, &model.FileEvent{Timestamp: base.Add(time.Minute).Format(model.TimestampLayout), FilePath: "/b", EventType: model.FileCreated})
	_ = repo.Append(ctx, &model.FileEvent{Timestamp: base.Format(model.TimestampLayout), FilePath: "/a", EventType: model.FileCreated})

	events, err := repo.GetSince(ctx, base.Format(model.TimestampLayout))
	if err != nil {
		t.Fatalf("GetSince error: %v", err)
	}
	if len(events) != 2 || events[0].FilePath != "/a" || events[1].FilePath != "/b" {
		t.Fatalf("events=%+v, want ascending order", events)
	}
}
