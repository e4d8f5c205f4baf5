package service

import (
	"context"
	"fmt"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

// UsageSource 使用时长读取，由 repository.UsageRepository 实现
type UsageSource interface {
	GetUsage(ctx context.Context, date string) ([]model.AppUsage, error)
	GetUsageRange(ctx context.Context, endDate string, days int) ([]model.AppUsage, error)
}

// AnalyzerConfig 分析配置
type AnalyzerConfig struct {
	Days           int // 回看天数
	MinFrequency   int // 序列最小支持度
	SequenceLength int // n-gram 长度
}

// DefaultAnalyzerConfig 默认配置
func DefaultAnalyzerConfig() *AnalyzerConfig {
	return &AnalyzerConfig{
		Days:           7,
		MinFrequency:   3,
		SequenceLength: 3,
	}
}

// AnalyzerService 任务挖掘分析服务
// 只读事件库与使用时长的快照，不与追踪器竞争任何锁；
// 扫描期间新追加的事件可能不被包含，这是可接受的最终一致性
type AnalyzerService struct {
	miner  *SequenceMiner
	scorer *CandidateScorer
	usage  UsageSource
	files  FileEventSource
	visits VisitSource
	cfg    *AnalyzerConfig
	now    func() time.Time
}

// NewAnalyzerService 创建分析服务
func NewAnalyzerService(
	events WindowChangeSource,
	usage UsageSource,
	files FileEventSource,
	visits VisitSource,
	scorerCfg *ScorerConfig,
	cfg *AnalyzerConfig,
) *AnalyzerService {
	if cfg == nil {
		cfg = DefaultAnalyzerConfig()
	}
	if cfg.Days <= 0 {
		cfg.Days = 7
	}
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = 3
	}
	if cfg.SequenceLength <= 0 {
		cfg.SequenceLength = 3
	}

	return &AnalyzerService{
		miner:  NewSequenceMiner(events),
		scorer: NewCandidateScorer(scorerCfg),
		usage:  usage,
		files:  files,
		visits: visits,
		cfg:    cfg,
		now:    time.Now,
	}
}

// FrequentSequences 按配置挖掘频繁序列
func (s *AnalyzerService) FrequentSequences(ctx context.Context) ([]Sequence, error) {
	return s.miner.MineFrequentSequences(ctx, s.cfg.Days, s.cfg.MinFrequency, s.cfg.SequenceLength)
}

// AppUsage 查询单日使用时长
func (s *AnalyzerService) AppUsage(ctx context.Context, date string) ([]model.AppUsage, error) {
	return s.usage.GetUsage(ctx, date)
}

// BrowserPatterns 分析浏览器使用模式
func (s *AnalyzerService) BrowserPatterns(ctx context.Context, days int) (map[string]BrowserStats, error) {
	if days <= 0 {
		days = s.cfg.Days
	}
	return AnalyzeBrowserPatterns(ctx, s.visits, days, s.now())
}

// FileActivities 分析文件活动
func (s *AnalyzerService) FileActivities(ctx context.Context, days int) (*FileActivityStats, error) {
	if days <= 0 {
		days = s.cfg.Days
	}
	return AnalyzeFileActivities(ctx, s.files, days, s.now())
}

// IdentifyAutomationCandidates 汇总三类来源生成自动化候选
func (s *AnalyzerService) IdentifyAutomationCandidates(ctx context.Context) ([]AutomationCandidate, error) {
	sequences, err := s.FrequentSequences(ctx)
	if err != nil {
		return nil, err
	}

	today := s.now().Format(model.DateLayout)
	usage, err := s.usage.GetUsage(ctx, today)
	if err != nil {
		return nil, fmt.Errorf("读取当日使用时长失败: %w", err)
	}

	since := s.now().UTC().AddDate(0, 0, -s.cfg.Days).Format(model.TimestampLayout)
	fileCounts, err := s.files.CountByType(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("统计文件事件失败: %w", err)
	}

	return s.scorer.ScoreCandidates(sequences, usage, fileCounts), nil
}
