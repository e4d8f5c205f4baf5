package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

type fakeUsageSource struct {
	byDate map[string][]model.AppUsage
}

func (f *fakeUsageSource) GetUsage(ctx context.Context, date string) ([]model.AppUsage, error) {
	return f.byDate[date], nil
}

func (f *fakeUsageSource) GetUsageRange(ctx context.Context, endDate string, days int) ([]model.AppUsage, error) {
	var out []model.AppUsage
	for _, records := range f.byDate {
		out = append(out, records...)
	}
	return out, nil
}

func newTestAnalyzer(usage *fakeUsageSource) *AnalyzerService {
	events := &fakeWindowChangeSource{
		events: changeEvents("A:a", "B:b", "A:a", "B:b", "A:a", "B:b", "A:a", "B:b"),
	}
	files := &fakeFileEventSource{counts: map[string]int64{model.FileModified: 60}}
	visits := &fakeVisitSource{}
	return NewAnalyzerService(events, usage, files, visits, nil, &AnalyzerConfig{
		Days:           7,
		MinFrequency:   3,
		SequenceLength: 2,
	})
}

func TestGenerateDailyReport(t *testing.T) {
	today := time.Now().Format(model.DateLayout)
	usage := &fakeUsageSource{byDate: map[string][]model.AppUsage{
		today: {{Date: today, Application: "code.exe", DurationSeconds: 3600}},
	}}
	svc := NewReportService(newTestAnalyzer(usage), usage, t.TempDir())

	path, err := svc.GenerateDailyReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateDailyReport error: %v", err)
	}
	if filepath.Base(path) != "daily_report_"+today+".json" {
		t.Fatalf("path=%q, want daily_report_%s.json", path, today)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report DailyReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	if report.Date != today {
		t.Fatalf("date=%q, want %q", report.Date, today)
	}
	if len(report.AppUsage) != 1 || report.AppUsage[0].Formatted != "01:00:00" {
		t.Fatalf("app usage=%+v, want code.exe 01:00:00", report.AppUsage)
	}
	if len(report.AutomationCandidates) == 0 {
		t.Fatal("expected automation candidates in report")
	}
}

func TestGenerateWeeklyReport(t *testing.T) {
	today := time.Now().Format(model.DateLayout)
	usage := &fakeUsageSource{byDate: map[string][]model.AppUsage{
		today: {{Date: today, Application: "code.exe", DurationSeconds: 1800}},
	}}
	svc := NewReportService(newTestAnalyzer(usage), usage, t.TempDir())

	path, err := svc.GenerateWeeklyReport(context.Background())
	if err != nil {
		t.Fatalf("GenerateWeeklyReport error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	var report WeeklyReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("unmarshal report: %v", err)
	}

	if len(report.AppUsageTrend[today]) != 1 {
		t.Fatalf("trend=%+v, want entry for %s", report.AppUsageTrend, today)
	}
	// [A,B] 滑窗出现 4 次，高于最小支持度
	if len(report.FrequentSequences) == 0 || report.FrequentSequences[0].Frequency != 4 {
		t.Fatalf("sequences=%+v, want (A,B) x4", report.FrequentSequences)
	}
}
