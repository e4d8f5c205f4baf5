package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

type fakeWindowChangeSource struct {
	events []model.ActivityEvent
	err    error
	since  string
}

func (f *fakeWindowChangeSource) WindowChangesSince(ctx context.Context, since string) ([]model.ActivityEvent, error) {
	f.since = since
	return f.events, f.err
}

func changeEvents(labels ...string) []model.ActivityEvent {
	events := make([]model.ActivityEvent, len(labels))
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, label := range labels {
		app, title, _ := strings.Cut(label, ":")
		events[i] = model.ActivityEvent{
			Timestamp:   base.Add(time.Duration(i) * time.Minute).Format(model.TimestampLayout),
			Application: app,
			WindowTitle: title,
			EventType:   model.EventWindowChange,
		}
	}
	return events
}

func TestMineFrequentSequences(t *testing.T) {
	source := &fakeWindowChangeSource{
		events: changeEvents("A:a", "B:b", "A:a", "B:b", "A:a", "B:b"),
	}
	miner := NewSequenceMiner(source)

	seqs, err := miner.MineFrequentSequences(context.Background(), 7, 2, 2)
	if err != nil {
		t.Fatalf("MineFrequentSequences error: %v", err)
	}

	// 滑窗: (A,B) (B,A) (A,B) (B,A) (A,B) -> A,B x3 / B,A x2
	if len(seqs) != 2 {
		t.Fatalf("sequences=%d, want 2", len(seqs))
	}
	if seqs[0].Frequency != 3 || seqs[0].Labels[0] != "A:a" || seqs[0].Labels[1] != "B:b" {
		t.Fatalf("seqs[0]=%+v, want (A:a B:b) x3", seqs[0])
	}
	if seqs[1].Frequency != 2 || seqs[1].Labels[0] != "B:b" || seqs[1].Labels[1] != "A:a" {
		t.Fatalf("seqs[1]=%+v, want (B:b A:a) x2", seqs[1])
	}
}

func TestMineFrequentSequencesTieBreaksByFirstSeen(t *testing.T) {
	// 两个序列频次相同，先出现的排前
	source := &fakeWindowChangeSource{
		events: changeEvents("A:a", "B:b", "C:c", "A:a", "B:b", "C:c"),
	}
	miner := NewSequenceMiner(source)

	seqs, err := miner.MineFrequentSequences(context.Background(), 7, 2, 2)
	if err != nil {
		t.Fatalf("MineFrequentSequences error: %v", err)
	}
	if len(seqs) != 2 {
		t.Fatalf("sequences=%d, want 2", len(seqs))
	}
	if seqs[0].Labels[0] != "A:a" || seqs[1].Labels[0] != "B:b" {
		t.Fatalf("tie order wrong: %+v", seqs)
	}
}

func TestMineFrequentSequencesInsufficientEvents(t *testing.T) {
	source := &fakeWindowChangeSource{events: changeEvents("A:a", "B:b")}
	miner := NewSequenceMiner(source)

	seqs, err := miner.MineFrequentSequences(context.Background(), 7, 3, 3)
	if err != nil {
		t.Fatalf("MineFrequentSequences error: %v", err)
	}
	if len(seqs) != 0 {
		t.Fatalf("sequences=%v, want empty", seqs)
	}
}

func TestMineFrequentSequencesBelowSupportDropped(t *testing.T) {
	source := &fakeWindowChangeSource{
		events: changeEvents("A:a", "B:b", "C:c", "D:d"),
	}
	miner := NewSequenceMiner(source)

	seqs, err := miner.MineFrequentSequences(context.Background(), 7, 2, 2)
	if err != nil {
		t.Fatalf("MineFrequentSequences error: %v", err)
	}
	if len(seqs) != 0 {
		t.Fatalf("sequences=%v, want empty (all below support)", seqs)
	}
}

func TestMineFrequentSequencesLooksBackDays(t *testing.T) {
	source := &fakeWindowChangeSource{}
	miner := NewSequenceMiner(source)
	now := time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)
	miner.now = func() time.Time { return now }

	if _, err := miner.MineFrequentSequences(context.Background(), 7, 3, 3); err != nil {
		t.Fatalf("MineFrequentSequences error: %v", err)
	}
	want := now.AddDate(0, 0, -7).Format(model.TimestampLayout)
	if source.since != want {
		t.Fatalf("since=%q, want %q", source.since, want)
	}
}

func TestMineFrequentSequencesSourceError(t *testing.T) {
	source := &fakeWindowChangeSource{err: errors.New("db locked")}
	miner := NewSequenceMiner(source)

	if _, err := miner.MineFrequentSequences(context.Background(), 7, 3, 3); err == nil {
		t.Fatal("expected error, got nil")
	}
}
