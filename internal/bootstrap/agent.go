package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/arketic/taskmine/internal/collector"
	"github.com/arketic/taskmine/internal/eventbus"
	"github.com/arketic/taskmine/internal/service"
)

// AgentRuntime 包含 Agent 二进制需要启动的采集与后台任务
type AgentRuntime struct {
	*Core
	Hub *eventbus.Hub

	Collectors struct {
		Watcher *collector.FileWatcher
		Browser *collector.BrowserCollector
	}

	Runtime struct {
		Usage           *service.UsageAggregator
		Tracker         *service.Tracker
		FileRecorder    *service.FileEventRecorder
		BrowserRecorder *service.BrowserVisitRecorder
	}
}

// NewAgentRuntime 构建 Agent 运行时并启动采集服务
func NewAgentRuntime(ctx context.Context, cfgPath string) (*AgentRuntime, error) {
	core, err := NewCore(cfgPath)
	if err != nil {
		return nil, err
	}

	rt := &AgentRuntime{Core: core, Hub: eventbus.NewHub()}

	if core.DB.SafeMode {
		// 安全模式：迁移失败时不启动任何写库链路，仅保留只读分析
		slog.Warn("数据库处于安全模式，采集服务未启动", "reason", core.DB.MigrationError)
		return rt, nil
	}

	// 时长聚合：单写者串行落库，保证同键增量的先后次序
	rt.Runtime.Usage = service.NewUsageAggregator(core.Repos.Usage, &service.UsageAggregatorConfig{
		MaxRetries: core.Cfg.Tracker.MaxRetries,
		BackoffMs:  core.Cfg.Tracker.BackoffMs,
	})
	rt.Runtime.Usage.Start()

	// 前台窗口与输入追踪
	rt.Runtime.Tracker = service.NewTracker(
		collector.NewWindowObserver(),
		collector.NewInputObserver(),
		core.Repos.Event,
		rt.Runtime.Usage,
		rt.Hub,
		&service.TrackerConfig{
			TickIntervalMs:   core.Cfg.Tracker.TickIntervalMs,
			FlushIntervalSec: core.Cfg.Tracker.FlushIntervalSec,
			IdleThresholdSec: core.Cfg.Tracker.IdleThresholdSec,
			PendingCap:       core.Cfg.Tracker.PendingCap,
			MaxRetries:       core.Cfg.Tracker.MaxRetries,
			BackoffMs:        core.Cfg.Tracker.BackoffMs,
		},
	)
	if err := rt.Runtime.Tracker.Start(ctx); err != nil {
		rt.Close()
		return nil, err
	}

	// 文件活动监控（可选）
	if core.Cfg.Watcher.Enabled {
		watcher, err := collector.NewFileWatcher(&collector.FileWatcherConfig{
			WatchPaths:  core.Cfg.Watcher.Paths,
			BufferSize:  core.Cfg.Watcher.BufferSize,
			DebounceSec: core.Cfg.Watcher.DebounceSec,
		})
		if err != nil {
			slog.Warn("文件监控初始化失败，已跳过", "error", err)
		} else if err := watcher.Start(); err != nil {
			slog.Warn("文件监控启动失败，已跳过", "error", err)
		} else {
			rt.Collectors.Watcher = watcher
			rt.Runtime.FileRecorder = service.NewFileEventRecorder(watcher.Events(), core.Repos.File)
			rt.Runtime.FileRecorder.Start(ctx)
		}
	}

	// 浏览器历史采集（可选）
	if core.Cfg.Browser.Enabled {
		bc, err := collector.NewBrowserCollector(&collector.BrowserCollectorConfig{
			HistoryPath:  core.Cfg.Browser.HistoryPath,
			PollInterval: time.Duration(core.Cfg.Browser.PollIntervalSec) * time.Second,
		})
		if err != nil {
			slog.Warn("浏览器采集初始化失败，已跳过", "error", err)
		} else if err := bc.Start(ctx); err != nil {
			slog.Warn("浏览器采集启动失败，已跳过", "error", err)
		} else {
			rt.Collectors.Browser = bc
			rt.Runtime.BrowserRecorder = service.NewBrowserVisitRecorder(bc.Events(), core.Repos.Browser)
			rt.Runtime.BrowserRecorder.Start(ctx)
		}
	}

	// 每日报告（启动时补一次，此后每 24h）
	go runPeriodic(ctx, 24*time.Hour, func() {
		if path, err := core.Services.Report.GenerateDailyReport(ctx); err != nil {
			slog.Error("生成日报失败", "error", err)
		} else {
			slog.Info("日报已生成", "path", path)
		}
	})

	// 过期事件清理
	if core.Cfg.Storage.RetainDays > 0 {
		go runPeriodic(ctx, 12*time.Hour, func() {
			deleted, err := core.Repos.Event.DeleteOldEvents(ctx, core.Cfg.Storage.RetainDays)
			if err != nil {
				slog.Error("清理过期事件失败", "error", err)
				return
			}
			if deleted > 0 {
				slog.Info("清理过期事件", "deleted", deleted, "retain_days", core.Cfg.Storage.RetainDays)
			}
		})
	}

	return rt, nil
}

// Close 关闭 Agent 运行时资源，顺序与数据流向一致
func (rt *AgentRuntime) Close() error {
	if rt == nil {
		return nil
	}
	if rt.Runtime.Tracker != nil {
		_ = rt.Runtime.Tracker.Stop()
	}
	if rt.Collectors.Watcher != nil {
		_ = rt.Collectors.Watcher.Stop()
	}
	if rt.Collectors.Browser != nil {
		_ = rt.Collectors.Browser.Stop()
	}
	if rt.Runtime.FileRecorder != nil {
		rt.Runtime.FileRecorder.Stop()
	}
	if rt.Runtime.BrowserRecorder != nil {
		rt.Runtime.BrowserRecorder.Stop()
	}
	if rt.Runtime.Usage != nil {
		rt.Runtime.Usage.Stop()
	}
	return rt.Core.Close()
}

// runPeriodic 定时执行函数，首次立即执行一次
func runPeriodic(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
