package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

// FileEventSource 文件事件来源，由 repository.FileEventRepository 实现
type FileEventSource interface {
	GetSince(ctx context.Context, since string) ([]model.FileEvent, error)
	CountByType(ctx context.Context, since string) (map[string]int64, error)
}

// FileActivityStats 文件活动统计
type FileActivityStats struct {
	ActivityCounts map[string]int64 `json:"activity_counts"` // 事件类型 -> 次数
	TopExtensions  map[string]int   `json:"top_extensions"`  // 扩展名 -> 次数（前 5）
	HourlyActivity map[int]int      `json:"hourly_activity"` // 小时 (0-23) -> 次数
}

// topExtensionLimit 保留的高频扩展名数
const topExtensionLimit = 5

// AnalyzeFileActivities 分析最近 days 天的文件活动
func AnalyzeFileActivities(ctx context.Context, files FileEventSource, days int, now time.Time) (*FileActivityStats, error) {
	if days <= 0 {
		days = 7
	}

	since := now.UTC().AddDate(0, 0, -days).Format(model.TimestampLayout)
	events, err := files.GetSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("读取文件事件失败: %w", err)
	}
	if len(events) == 0 {
		return &FileActivityStats{
			ActivityCounts: map[string]int64{},
			TopExtensions:  map[string]int{},
			HourlyActivity: map[int]int{},
		}, nil
	}

	counts := make(map[string]int64)
	extensions := make(map[string]int)
	hourly := make(map[int]int)

	for _, ev := range events {
		counts[ev.EventType]++

		ext := strings.ToLower(filepath.Ext(ev.FilePath))
		if ext == "" {
			ext = "no_extension"
		}
		extensions[ext]++

		if ts, err := time.Parse(model.TimestampLayout, ev.Timestamp); err == nil {
			hourly[ts.Hour()]++
		}
	}

	return &FileActivityStats{
		ActivityCounts: counts,
		TopExtensions:  topExtensions(extensions, topExtensionLimit),
		HourlyActivity: hourly,
	}, nil
}

// topExtensions 取出现次数前 limit 的扩展名
func topExtensions(extensions map[string]int, limit int) map[string]int {
	if len(extensions) <= limit {
		return extensions
	}

	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if extensions[names[i]] != extensions[names[j]] {
			return extensions[names[i]] > extensions[names[j]]
		}
		return names[i] < names[j]
	})

	top := make(map[string]int, limit)
	for _, name := range names[:limit] {
		top[name] = extensions[name]
	}
	return top
}
