package service

import (
	"context"
	"testing"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

func TestIdentifyAutomationCandidatesCombinesSources(t *testing.T) {
	today := time.Now().Format(model.DateLayout)
	usage := &fakeUsageSource{byDate: map[string][]model.AppUsage{
		today: {{Date: today, Application: "excel.exe", DurationSeconds: 36000}},
	}}
	svc := newTestAnalyzer(usage)

	cands, err := svc.IdentifyAutomationCandidates(context.Background())
	if err != nil {
		t.Fatalf("IdentifyAutomationCandidates error: %v", err)
	}

	types := make(map[string]int)
	for _, c := range cands {
		types[c.Type]++
	}
	if types[CandidateSequence] == 0 {
		t.Fatalf("candidates=%+v, missing sequence candidate", cands)
	}
	if types[CandidateAppUsage] != 1 {
		t.Fatalf("candidates=%+v, want one app_usage candidate", cands)
	}
	if types[CandidateFileActivity] != 1 {
		t.Fatalf("candidates=%+v, want one file_activity candidate", cands)
	}

	// 600 分钟的 excel.exe 得 60 分，排在首位
	if cands[0].Type != CandidateAppUsage || cands[0].Score != 60 {
		t.Fatalf("cands[0]=%+v, want app_usage at 60", cands[0])
	}
}

func TestFrequentSequencesUsesConfig(t *testing.T) {
	usage := &fakeUsageSource{byDate: map[string][]model.AppUsage{}}
	svc := newTestAnalyzer(usage)

	seqs, err := svc.FrequentSequences(context.Background())
	if err != nil {
		t.Fatalf("FrequentSequences error: %v", err)
	}
	if len(seqs) == 0 || len(seqs[0].Labels) != 2 {
		t.Fatalf("seqs=%+v, want 2-gram sequences", seqs)
	}
}
