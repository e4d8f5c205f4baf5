package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arketic/taskmine/internal/model"
)

// 候选类型
const (
	CandidateSequence     = "sequence"
	CandidateAppUsage     = "app_usage"
	CandidateFileActivity = "file_activity"
)

// 优先级
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// AutomationCandidate 自动化候选项，每次评分重新生成
type AutomationCandidate struct {
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Score       float64 `json:"score"` // [0, 100]
	Priority    string  `json:"priority"`
	Details     string  `json:"details"`
}

// ScorerConfig 评分器配置
type ScorerConfig struct {
	TopSequences int   // 参与评分的频繁序列数
	TopApps      int   // 参与评分的重度使用应用数
	FileCountMin int64 // 文件活动入围的最小事件数
}

// DefaultScorerConfig 默认配置
func DefaultScorerConfig() *ScorerConfig {
	return &ScorerConfig{
		TopSequences: 5,
		TopApps:      3,
		FileCountMin: 10,
	}
}

// CandidateScorer 自动化候选评分器
// 确定性打分，上限 100：序列 freq*10，应用 分钟/10，文件活动 次数/5
type CandidateScorer struct {
	cfg *ScorerConfig
}

// NewCandidateScorer 创建评分器
func NewCandidateScorer(cfg *ScorerConfig) *CandidateScorer {
	if cfg == nil {
		cfg = DefaultScorerConfig()
	}
	if cfg.TopSequences <= 0 {
		cfg.TopSequences = 5
	}
	if cfg.TopApps <= 0 {
		cfg.TopApps = 3
	}
	if cfg.FileCountMin <= 0 {
		cfg.FileCountMin = 10
	}
	return &CandidateScorer{cfg: cfg}
}

// ScoreCandidates 汇总三类来源并按得分降序输出候选项
func (s *CandidateScorer) ScoreCandidates(
	sequences []Sequence,
	usage []model.AppUsage,
	fileCounts map[string]int64,
) []AutomationCandidate {
	candidates := make([]AutomationCandidate, 0)
	candidates = append(candidates, s.sequenceCandidates(sequences)...)
	candidates = append(candidates, s.appUsageCandidates(usage)...)
	candidates = append(candidates, s.fileActivityCandidates(fileCounts)...)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// sequenceCandidates 频繁序列候选：score = min(freq*10, 100)
func (s *CandidateScorer) sequenceCandidates(sequences []Sequence) []AutomationCandidate {
	picked := sequences
	if len(picked) > s.cfg.TopSequences {
		picked = picked[:s.cfg.TopSequences]
	}

	out := make([]AutomationCandidate, 0, len(picked))
	for _, seq := range picked {
		apps := make([]string, len(seq.Labels))
		for i, label := range seq.Labels {
			apps[i] = label
			if idx := strings.Index(label, ":"); idx >= 0 {
				apps[i] = label[:idx]
			}
		}

		score := capScore(float64(seq.Frequency) * 10)
		out = append(out, AutomationCandidate{
			Type:        CandidateSequence,
			Description: fmt.Sprintf("频繁重复的操作序列: %s", strings.Join(apps, " -> ")),
			Score:       score,
			Priority:    scorePriority(score),
			Details:     fmt.Sprintf("序列 %s 出现 %d 次", strings.Join(seq.Labels, " -> "), seq.Frequency),
		})
	}
	return out
}

// appUsageCandidates 重度使用应用候选：score = min(总分钟/10, 100)
func (s *CandidateScorer) appUsageCandidates(usage []model.AppUsage) []AutomationCandidate {
	// 按应用聚合总时长，保留首次出现顺序做平局基准
	totals := make(map[string]int64)
	appOrder := make([]string, 0)
	for _, record := range usage {
		if _, ok := totals[record.Application]; !ok {
			appOrder = append(appOrder, record.Application)
		}
		totals[record.Application] += record.DurationSeconds
	}

	sort.SliceStable(appOrder, func(i, j int) bool {
		return totals[appOrder[i]] > totals[appOrder[j]]
	})
	if len(appOrder) > s.cfg.TopApps {
		appOrder = appOrder[:s.cfg.TopApps]
	}

	out := make([]AutomationCandidate, 0, len(appOrder))
	for _, app := range appOrder {
		minutes := float64(SecondsToMinutesFloor(totals[app]))
		score := capScore(minutes / 10)
		out = append(out, AutomationCandidate{
			Type:        CandidateAppUsage,
			Description: fmt.Sprintf("重度使用的应用: %s", app),
			Score:       score,
			Priority:    scorePriority(score),
			Details:     fmt.Sprintf("%s 累计使用 %s", app, FormatDuration(totals[app])),
		})
	}
	return out
}

// fileActivityCandidates 文件活动候选：次数 > 阈值入围，score = min(次数/5, 100)
func (s *CandidateScorer) fileActivityCandidates(fileCounts map[string]int64) []AutomationCandidate {
	types := make([]string, 0, len(fileCounts))
	for eventType := range fileCounts {
		types = append(types, eventType)
	}
	sort.Strings(types)

	out := make([]AutomationCandidate, 0)
	for _, eventType := range types {
		count := fileCounts[eventType]
		if count <= s.cfg.FileCountMin {
			continue
		}

		score := capScore(float64(count) / 5)
		out = append(out, AutomationCandidate{
			Type:        CandidateFileActivity,
			Description: fmt.Sprintf("密集的文件活动: %s", eventType),
			Score:       score,
			Priority:    scorePriority(score),
			Details:     fmt.Sprintf("检测到 %d 次 %s 文件事件", count, eventType),
		})
	}
	return out
}

// capScore 得分上限 100
func capScore(score float64) float64 {
	if score > 100 {
		return 100
	}
	return score
}

// scorePriority 得分到优先级的映射
func scorePriority(score float64) string {
	switch {
	case score >= 50:
		return PriorityHigh
	case score >= 20:
		return PriorityMedium
	default:
		return PriorityLow
	}
}
