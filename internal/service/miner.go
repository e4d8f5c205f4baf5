package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

// WindowChangeSource 窗口切换事件来源，由 repository.EventRepository 实现
type WindowChangeSource interface {
	WindowChangesSince(ctx context.Context, since string) ([]model.ActivityEvent, error)
}

// Sequence 一条频繁活动序列
// 标签形如 "application:windowTitle"，每次挖掘从事件流重新计算
type Sequence struct {
	Labels    []string `json:"labels"`
	Frequency int      `json:"frequency"`
}

// SequenceMiner 序列模式挖掘器
// 对窗口切换事件流做 n-gram 滑窗计数，频次达到最小支持度的序列保留
type SequenceMiner struct {
	events WindowChangeSource
	now    func() time.Time
}

// NewSequenceMiner 创建挖掘器
func NewSequenceMiner(events WindowChangeSource) *SequenceMiner {
	return &SequenceMiner{events: events, now: time.Now}
}

// seqCount 频次与首次出现序号，排序平局时按首次出现稳定
type seqCount struct {
	labels    []string
	count     int
	firstSeen int
}

// MineFrequentSequences 挖掘最近 days 天内出现至少 minFrequency 次的 n 元序列
// 结果按频次降序，平局按首次出现顺序；事件不足 n 个时返回空结果而非错误
func (m *SequenceMiner) MineFrequentSequences(ctx context.Context, days, minFrequency, n int) ([]Sequence, error) {
	if days <= 0 {
		days = 7
	}
	if minFrequency <= 0 {
		minFrequency = 3
	}
	if n <= 0 {
		n = 3
	}

	since := m.now().UTC().AddDate(0, 0, -days).Format(model.TimestampLayout)
	events, err := m.events.WindowChangesSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("读取窗口切换事件失败: %w", err)
	}

	if len(events) < n {
		return nil, nil
	}

	labels := make([]string, len(events))
	for i, ev := range events {
		labels[i] = SequenceLabel(ev.Application, ev.WindowTitle)
	}

	counts := make(map[string]*seqCount)
	order := 0
	for i := 0; i+n <= len(labels); i++ {
		window := labels[i : i+n]
		key := joinLabels(window)

		entry, ok := counts[key]
		if !ok {
			entry = &seqCount{
				labels:    append([]string(nil), window...),
				firstSeen: order,
			}
			counts[key] = entry
			order++
		}
		entry.count++
	}

	frequent := make([]*seqCount, 0, len(counts))
	for _, entry := range counts {
		if entry.count >= minFrequency {
			frequent = append(frequent, entry)
		}
	}

	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].count != frequent[j].count {
			return frequent[i].count > frequent[j].count
		}
		return frequent[i].firstSeen < frequent[j].firstSeen
	})

	result := make([]Sequence, len(frequent))
	for i, entry := range frequent {
		result[i] = Sequence{Labels: entry.labels, Frequency: entry.count}
	}
	return result, nil
}

// SequenceLabel 构造序列标签 "application:windowTitle"
func SequenceLabel(application, title string) string {
	return application + ":" + title
}

// joinLabels 用不可见分隔符拼接标签作为计数 key
// 标签本身可能含任意可打印字符
func joinLabels(labels []string) string {
	const sep = "\x1f"
	key := labels[0]
	for _, l := range labels[1:] {
		key += sep + l
	}
	return key
}
