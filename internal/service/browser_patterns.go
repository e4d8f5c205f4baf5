package service

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/arketic/taskmine/internal/model"
)

// VisitSource 浏览器访问记录来源，由 repository.BrowserVisitRepository 实现
type VisitSource interface {
	GetSince(ctx context.Context, since string) ([]model.BrowserVisit, error)
}

// BrowserStats 单个浏览器的使用统计
type BrowserStats struct {
	TopDomains     map[string]int `json:"top_domains"`      // 域名 -> 访问次数（前 10）
	AvgDailyVisits float64        `json:"avg_daily_visits"` // 日均访问次数
}

// topDomainLimit 每个浏览器保留的高频域名数
const topDomainLimit = 10

// AnalyzeBrowserPatterns 分析最近 days 天的浏览器使用模式
func AnalyzeBrowserPatterns(ctx context.Context, visits VisitSource, days int, now time.Time) (map[string]BrowserStats, error) {
	if days <= 0 {
		days = 7
	}

	since := now.UTC().AddDate(0, 0, -days).Format(model.TimestampLayout)
	records, err := visits.GetSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("读取浏览器访问记录失败: %w", err)
	}
	if len(records) == 0 {
		return map[string]BrowserStats{}, nil
	}

	type browserAcc struct {
		domains map[string]int
		days    map[string]int
		total   int
	}

	accs := make(map[string]*browserAcc)
	for _, visit := range records {
		acc, ok := accs[visit.Browser]
		if !ok {
			acc = &browserAcc{domains: make(map[string]int), days: make(map[string]int)}
			accs[visit.Browser] = acc
		}

		if domain := extractDomain(visit.URL); domain != "" {
			acc.domains[domain]++
		}
		if len(visit.Timestamp) >= len(model.DateLayout) {
			acc.days[visit.Timestamp[:len(model.DateLayout)]]++
		}
		acc.total++
	}

	stats := make(map[string]BrowserStats, len(accs))
	for browser, acc := range accs {
		avg := 0.0
		if len(acc.days) > 0 {
			avg = float64(acc.total) / float64(len(acc.days))
		}
		stats[browser] = BrowserStats{
			TopDomains:     topDomains(acc.domains, topDomainLimit),
			AvgDailyVisits: avg,
		}
	}
	return stats, nil
}

// extractDomain 从 URL 提取域名，解析失败返回空
func extractDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// topDomains 取访问次数前 limit 的域名
func topDomains(domains map[string]int, limit int) map[string]int {
	if len(domains) <= limit {
		return domains
	}

	names := make([]string, 0, len(domains))
	for name := range domains {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if domains[names[i]] != domains[names[j]] {
			return domains[names[i]] > domains[names[j]]
		}
		return names[i] < names[j]
	})

	top := make(map[string]int, limit)
	for _, name := range names[:limit] {
		top[name] = domains[name]
	}
	return top
}
