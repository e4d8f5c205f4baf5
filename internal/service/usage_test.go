package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/arketic/taskmine/internal/repository"
	"github.com/arketic/taskmine/internal/testutil"
)

func TestUsageAggregatorAccumulates(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewUsageRepository(db)

	agg := NewUsageAggregator(repo, &UsageAggregatorConfig{BackoffMs: 1})
	agg.Start()

	agg.Add("2026-03-02", "code.exe", 30)
	agg.Add("2026-03-02", "code.exe", 30)
	agg.Add("2026-03-02", "chrome.exe", 10)
	agg.Add("2026-03-02", "code.exe", 0) // 幂等空操作

	agg.Stop()

	records, err := repo.GetUsage(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatalf("GetUsage error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records=%d, want 2", len(records))
	}
	// 时长降序
	if records[0].Application != "code.exe" || records[0].DurationSeconds != 60 {
		t.Fatalf("records[0]=%+v, want code.exe 60s", records[0])
	}
	if records[1].Application != "chrome.exe" || records[1].DurationSeconds != 10 {
		t.Fatalf("records[1]=%+v, want chrome.exe 10s", records[1])
	}
}

func TestUsageAggregatorDiscardsNegative(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewUsageRepository(db)

	agg := NewUsageAggregator(repo, &UsageAggregatorConfig{BackoffMs: 1})
	agg.Start()
	agg.Add("2026-03-02", "code.exe", -10)
	agg.Stop()

	records, err := repo.GetUsage(context.Background(), "2026-03-02")
	if err != nil {
		t.Fatalf("GetUsage error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records=%v, want empty", records)
	}
}

func TestUsageAggregatorDropsOldestOnOverflow(t *testing.T) {
	db := testutil.OpenTestDB(t)
	repo := repository.NewUsageRepository(db)

	// 不启动 writer，队列只进不出
	agg := NewUsageAggregator(repo, &UsageAggregatorConfig{MaxQueue: 2, BackoffMs: 1})
	agg.Add("2026-03-02", "a.exe", 1)
	agg.Add("2026-03-02", "b.exe", 2)
	agg.Add("2026-03-02", "c.exe", 3)

	if agg.QueueLen() != 2 {
		t.Fatalf("queue=%d, want 2", agg.QueueLen())
	}
	if agg.Dropped() != 1 {
		t.Fatalf("dropped=%d, want 1", agg.Dropped())
	}
}

// flakyUsageStore 前 failures 次写入失败，之后成功
type flakyUsageStore struct {
	mu       sync.Mutex
	failures int
	applied  []usageDelta
}

func (f *flakyUsageStore) UpsertUsage(ctx context.Context, date, application string, deltaSeconds int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return 0, errors.New("store unavailable")
	}
	f.applied = append(f.applied, usageDelta{date: date, application: application, seconds: deltaSeconds})
	return deltaSeconds, nil
}

func TestUsageAggregatorRetriesAndPreservesOrder(t *testing.T) {
	store := &flakyUsageStore{failures: 2}

	agg := NewUsageAggregator(store, &UsageAggregatorConfig{MaxRetries: 3, BackoffMs: 1})
	agg.Start()
	agg.Add("2026-03-02", "code.exe", 10)
	agg.Add("2026-03-02", "code.exe", 20)

	deadline := time.Now().Add(2 * time.Second)
	for {
		store.mu.Lock()
		done := len(store.applied) == 2
		store.mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for writes")
		}
		time.Sleep(5 * time.Millisecond)
	}
	agg.Stop()

	store.mu.Lock()
	defer store.mu.Unlock()
	if store.applied[0].seconds != 10 || store.applied[1].seconds != 20 {
		t.Fatalf("applied=%+v, want 10 then 20", store.applied)
	}
}
