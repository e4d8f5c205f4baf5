package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

// AppUsageEntry 报告中的单条应用使用时长
type AppUsageEntry struct {
	Application     string `json:"application"`
	DurationSeconds int64  `json:"duration_seconds"`
	Formatted       string `json:"formatted"` // HH:MM:SS
}

// DailyReport 日报
type DailyReport struct {
	Date                 string                  `json:"date"`
	AppUsage             []AppUsageEntry         `json:"app_usage"`
	BrowserPatterns      map[string]BrowserStats `json:"browser_patterns"`
	FileActivities       *FileActivityStats      `json:"file_activities"`
	AutomationCandidates []AutomationCandidate   `json:"automation_candidates"`
}

// WeeklyReport 周报
type WeeklyReport struct {
	Period               string                     `json:"period"`
	AppUsageTrend        map[string][]AppUsageEntry `json:"app_usage_trend"` // date -> 当日使用
	BrowserPatterns      map[string]BrowserStats    `json:"browser_patterns"`
	FileActivities       *FileActivityStats         `json:"file_activities"`
	FrequentSequences    []Sequence                 `json:"frequent_sequences"`
	AutomationCandidates []AutomationCandidate      `json:"automation_candidates"`
}

// ReportService 周期性分析报告生成
type ReportService struct {
	analyzer   *AnalyzerService
	usage      UsageSource
	reportsDir string
	now        func() time.Time
}

// NewReportService 创建报告服务
func NewReportService(analyzer *AnalyzerService, usage UsageSource, reportsDir string) *ReportService {
	return &ReportService{
		analyzer:   analyzer,
		usage:      usage,
		reportsDir: reportsDir,
		now:        time.Now,
	}
}

// GenerateDailyReport 生成当日 JSON 报告，返回文件路径
func (s *ReportService) GenerateDailyReport(ctx context.Context) (string, error) {
	today := s.now().Format(model.DateLayout)

	usage, err := s.analyzer.AppUsage(ctx, today)
	if err != nil {
		return "", err
	}
	browser, err := s.analyzer.BrowserPatterns(ctx, 1)
	if err != nil {
		return "", err
	}
	files, err := s.analyzer.FileActivities(ctx, 1)
	if err != nil {
		return "", err
	}
	candidates, err := s.analyzer.IdentifyAutomationCandidates(ctx)
	if err != nil {
		return "", err
	}

	report := DailyReport{
		Date:                 today,
		AppUsage:             usageEntries(usage),
		BrowserPatterns:      browser,
		FileActivities:       files,
		AutomationCandidates: candidates,
	}

	path := filepath.Join(s.reportsDir, fmt.Sprintf("daily_report_%s.json", today))
	if err := s.writeReport(path, report); err != nil {
		return "", err
	}

	slog.Info("日报已生成", "path", path)
	return path, nil
}

// GenerateWeeklyReport 生成最近 7 天的 JSON 报告，返回文件路径
func (s *ReportService) GenerateWeeklyReport(ctx context.Context) (string, error) {
	end := s.now()
	start := end.AddDate(0, 0, -7)
	endDate := end.Format(model.DateLayout)

	browser, err := s.analyzer.BrowserPatterns(ctx, 7)
	if err != nil {
		return "", err
	}
	files, err := s.analyzer.FileActivities(ctx, 7)
	if err != nil {
		return "", err
	}
	sequences, err := s.analyzer.FrequentSequences(ctx)
	if err != nil {
		return "", err
	}
	candidates, err := s.analyzer.IdentifyAutomationCandidates(ctx)
	if err != nil {
		return "", err
	}

	trend := make(map[string][]AppUsageEntry)
	records, err := s.usage.GetUsageRange(ctx, endDate, 7)
	if err != nil {
		return "", err
	}
	for _, record := range records {
		trend[record.Date] = append(trend[record.Date], AppUsageEntry{
			Application:     record.Application,
			DurationSeconds: record.DurationSeconds,
			Formatted:       FormatDuration(record.DurationSeconds),
		})
	}

	report := WeeklyReport{
		Period:               fmt.Sprintf("%s - %s", start.Format(model.DateLayout), endDate),
		AppUsageTrend:        trend,
		BrowserPatterns:      browser,
		FileActivities:       files,
		FrequentSequences:    sequences,
		AutomationCandidates: candidates,
	}

	path := filepath.Join(s.reportsDir, fmt.Sprintf("weekly_report_%s.json", endDate))
	if err := s.writeReport(path, report); err != nil {
		return "", err
	}

	slog.Info("周报已生成", "path", path)
	return path, nil
}

// writeReport 序列化并写入报告文件
func (s *ReportService) writeReport(path string, report any) error {
	if err := os.MkdirAll(s.reportsDir, 0755); err != nil {
		return fmt.Errorf("创建报告目录失败: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化报告失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入报告失败: %w", err)
	}
	return nil
}

// usageEntries 转换使用记录为报告条目
func usageEntries(records []model.AppUsage) []AppUsageEntry {
	entries := make([]AppUsageEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, AppUsageEntry{
			Application:     record.Application,
			DurationSeconds: record.DurationSeconds,
			Formatted:       FormatDuration(record.DurationSeconds),
		})
	}
	return entries
}
