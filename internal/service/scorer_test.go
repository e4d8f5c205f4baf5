package service

import (
	"strings"
	"testing"

	"github.com/arketic/taskmine/internal/model"
)

func TestSequenceCandidateScore(t *testing.T) {
	scorer := NewCandidateScorer(nil)

	cands := scorer.ScoreCandidates([]Sequence{
		{Labels: []string{"A:a", "B:b"}, Frequency: 8},
	}, nil, nil)

	if len(cands) != 1 {
		t.Fatalf("candidates=%d, want 1", len(cands))
	}
	c := cands[0]
	if c.Type != CandidateSequence {
		t.Fatalf("type=%q, want %q", c.Type, CandidateSequence)
	}
	if c.Score != 80 {
		t.Fatalf("score=%.1f, want 80", c.Score)
	}
	if c.Priority != PriorityHigh {
		t.Fatalf("priority=%q, want High", c.Priority)
	}
	if !strings.Contains(c.Description, "A -> B") {
		t.Fatalf("description=%q, want app chain", c.Description)
	}
}

func TestSequenceScoreCappedAt100(t *testing.T) {
	scorer := NewCandidateScorer(nil)

	cands := scorer.ScoreCandidates([]Sequence{
		{Labels: []string{"A:a", "B:b"}, Frequency: 15},
	}, nil, nil)

	if cands[0].Score != 100 {
		t.Fatalf("score=%.1f, want capped 100", cands[0].Score)
	}
}

func TestAppUsageCandidateScore(t *testing.T) {
	scorer := NewCandidateScorer(nil)

	// 45 分钟 -> 4.5 分 Low
	cands := scorer.ScoreCandidates(nil, []model.AppUsage{
		{Date: "2026-03-02", Application: "excel.exe", DurationSeconds: 45 * 60},
	}, nil)

	if len(cands) != 1 {
		t.Fatalf("candidates=%d, want 1", len(cands))
	}
	c := cands[0]
	if c.Type != CandidateAppUsage || c.Score != 4.5 || c.Priority != PriorityLow {
		t.Fatalf("candidate=%+v, want app_usage 4.5 Low", c)
	}

	// 不足一分钟的零头向下取整，45 分 30 秒仍按 45 分钟计
	cands = scorer.ScoreCandidates(nil, []model.AppUsage{
		{Date: "2026-03-02", Application: "excel.exe", DurationSeconds: 45*60 + 30},
	}, nil)
	if len(cands) != 1 || cands[0].Score != 4.5 {
		t.Fatalf("candidates=%+v, want 4.5 with partial minute floored", cands)
	}
}

func TestAppUsageAggregatesAcrossDates(t *testing.T) {
	scorer := NewCandidateScorer(nil)

	cands := scorer.ScoreCandidates(nil, []model.AppUsage{
		{Date: "2026-03-01", Application: "excel.exe", DurationSeconds: 3000},
		{Date: "2026-03-02", Application: "excel.exe", DurationSeconds: 3000},
	}, nil)

	// 100 分钟合计 -> 10 分
	if len(cands) != 1 || cands[0].Score != 10 {
		t.Fatalf("candidates=%+v, want single excel.exe at 10", cands)
	}
}

func TestAppUsageTopAppsLimit(t *testing.T) {
	scorer := NewCandidateScorer(&ScorerConfig{TopApps: 2})

	cands := scorer.ScoreCandidates(nil, []model.AppUsage{
		{Date: "2026-03-02", Application: "a.exe", DurationSeconds: 600},
		{Date: "2026-03-02", Application: "b.exe", DurationSeconds: 1200},
		{Date: "2026-03-02", Application: "c.exe", DurationSeconds: 1800},
	}, nil)

	if len(cands) != 2 {
		t.Fatalf("candidates=%d, want 2", len(cands))
	}
	// 得分降序：c.exe 30min=3 分, b.exe 20min=2 分
	if !strings.Contains(cands[0].Description, "c.exe") || !strings.Contains(cands[1].Description, "b.exe") {
		t.Fatalf("candidates=%+v, want c.exe then b.exe", cands)
	}
}

func TestFileActivityCandidateScore(t *testing.T) {
	scorer := NewCandidateScorer(nil)

	cands := scorer.ScoreCandidates(nil, nil, map[string]int64{
		model.FileModified: 30,
		model.FileCreated:  10, // 恰好等于阈值，不入围
	})

	if len(cands) != 1 {
		t.Fatalf("candidates=%d, want 1", len(cands))
	}
	c := cands[0]
	if c.Type != CandidateFileActivity || c.Score != 6 || c.Priority != PriorityLow {
		t.Fatalf("candidate=%+v, want file_activity 6 Low", c)
	}
}

func TestScoreCandidatesSortedDescending(t *testing.T) {
	scorer := NewCandidateScorer(nil)

	// 序列 30 分，应用 600 分钟 60 分，文件 20 分
	cands := scorer.ScoreCandidates(
		[]Sequence{{Labels: []string{"A:a", "B:b"}, Frequency: 3}},
		[]model.AppUsage{{Date: "2026-03-02", Application: "x.exe", DurationSeconds: 36000}},
		map[string]int64{model.FileModified: 100},
	)

	if len(cands) != 3 {
		t.Fatalf("candidates=%d, want 3", len(cands))
	}
	for i := 1; i < len(cands); i++ {
		if cands[i].Score > cands[i-1].Score {
			t.Fatalf("candidates not sorted: %+v", cands)
		}
	}
	if cands[0].Type != CandidateAppUsage || cands[0].Priority != PriorityHigh {
		t.Fatalf("cands[0]=%+v, want app_usage High", cands[0])
	}
	if cands[1].Type != CandidateSequence || cands[1].Priority != PriorityMedium {
		t.Fatalf("cands[1]=%+v, want sequence Medium", cands[1])
	}
}

func TestScorePriorityThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0, PriorityLow},
		{19.9, PriorityLow},
		{20, PriorityMedium},
		{49.9, PriorityMedium},
		{50, PriorityHigh},
		{100, PriorityHigh},
	}
	for _, tc := range cases {
		if got := scorePriority(tc.score); got != tc.want {
			t.Fatalf("scorePriority(%.1f)=%q, want %q", tc.score, got, tc.want)
		}
	}
}
