package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arketic/taskmine/internal/collector"
	"github.com/arketic/taskmine/internal/eventbus"
	"github.com/arketic/taskmine/internal/model"
)

// EventStore 活动事件持久化，由 repository.EventRepository 实现
type EventStore interface {
	Append(ctx context.Context, event *model.ActivityEvent) error
}

// UsageSink 时长增量的下游，由 UsageAggregator 实现
type UsageSink interface {
	Add(date, application string, deltaSeconds int64)
}

// windowState 当前前台窗口状态，仅存在于内存中
// 三个并发路径（tick、定期落库、输入回调）都经由同一把锁读改写
type windowState struct {
	title      string
	app        string
	lastUpdate time.Time // 当前计时段的起点
	lastInput  time.Time // 最近一次键鼠输入
}

// Tracker 活动状态追踪器
// 1s 轮询前台窗口识别切换，30s 为持续停留的活跃窗口累计时长，
// 空闲（超过阈值无输入）期间不计时
type Tracker struct {
	windows collector.WindowObserver
	inputs  collector.InputObserver
	events  EventStore
	usage   UsageSink
	bus     *eventbus.Hub

	tickInterval  time.Duration
	flushInterval time.Duration
	idleThreshold time.Duration

	mu    sync.Mutex
	state windowState

	// 事件写入失败时的有界暂存区，溢出丢最旧
	pendingMu      sync.Mutex
	pending        []*model.ActivityEvent
	pendingCap     int
	pendingDropped atomic.Int64

	maxRetries int
	backoff    time.Duration

	now      func() time.Time
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  atomic.Bool
	paused   atomic.Bool
}

// TrackerConfig 追踪器配置
type TrackerConfig struct {
	TickIntervalMs   int // 窗口轮询间隔（毫秒）
	FlushIntervalSec int // 持续窗口的定期落库间隔（秒）
	IdleThresholdSec int // 空闲阈值（秒）
	PendingCap       int // 事件暂存区容量
	MaxRetries       int // 事件写入重试次数
	BackoffMs        int // 重试退避基数（毫秒）
}

// DefaultTrackerConfig 默认配置
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		TickIntervalMs:   1000,
		FlushIntervalSec: 30,
		IdleThresholdSec: 60,
		PendingCap:       256,
		MaxRetries:       3,
		BackoffMs:        100,
	}
}

// NewTracker 创建追踪器
func NewTracker(
	windows collector.WindowObserver,
	inputs collector.InputObserver,
	events EventStore,
	usage UsageSink,
	bus *eventbus.Hub,
	cfg *TrackerConfig,
) *Tracker {
	if cfg == nil {
		cfg = DefaultTrackerConfig()
	}
	if cfg.TickIntervalMs <= 0 {
		cfg.TickIntervalMs = 1000
	}
	if cfg.FlushIntervalSec <= 0 {
		cfg.FlushIntervalSec = 30
	}
	if cfg.IdleThresholdSec <= 0 {
		cfg.IdleThresholdSec = 60
	}
	if cfg.PendingCap <= 0 {
		cfg.PendingCap = 256
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMs <= 0 {
		cfg.BackoffMs = 100
	}

	return &Tracker{
		windows:       windows,
		inputs:        inputs,
		events:        events,
		usage:         usage,
		bus:           bus,
		tickInterval:  time.Duration(cfg.TickIntervalMs) * time.Millisecond,
		flushInterval: time.Duration(cfg.FlushIntervalSec) * time.Second,
		idleThreshold: time.Duration(cfg.IdleThresholdSec) * time.Second,
		pendingCap:    cfg.PendingCap,
		maxRetries:    cfg.MaxRetries,
		backoff:       time.Duration(cfg.BackoffMs) * time.Millisecond,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
}

// Start 启动追踪器
func (t *Tracker) Start(ctx context.Context) error {
	if t.running.Load() {
		return nil
	}
	t.running.Store(true)

	slog.Info("活动追踪器启动",
		"tick_interval", t.tickInterval,
		"flush_interval", t.flushInterval,
		"idle_threshold", t.idleThreshold,
	)

	if err := t.inputs.Start(ctx, t.handleInput); err != nil {
		t.running.Store(false)
		return err
	}

	t.wg.Add(2)
	go t.tickLoop(ctx)
	go t.flushLoop(ctx)

	t.publishState("running")
	return nil
}

// Stop 停止追踪器，最后一段时长在此结清
func (t *Tracker) Stop() error {
	if !t.running.Load() {
		return nil
	}

	t.stopOnce.Do(func() {
		t.inputs.Stop()
		close(t.stopChan)
		t.wg.Wait()

		// 结清当前窗口的尾段
		t.flushUsage(t.now())

		t.running.Store(false)
		t.publishState("stopped")
		slog.Info("活动追踪器已停止")
	})
	return nil
}

// Pause 暂停计时与事件采集（托盘菜单用）
func (t *Tracker) Pause() {
	if t.paused.CompareAndSwap(false, true) {
		// 暂停前结清已累计的时长
		t.flushUsage(t.now())
		t.publishState("paused")
		slog.Info("活动追踪器已暂停")
	}
}

// Resume 恢复采集
func (t *Tracker) Resume() {
	if t.paused.CompareAndSwap(true, false) {
		now := t.now()
		t.mu.Lock()
		// 暂停期间不计时，计时段从恢复时刻重新开始
		t.state.lastUpdate = now
		t.mu.Unlock()
		t.publishState("running")
		slog.Info("活动追踪器已恢复")
	}
}

// Paused 是否处于暂停状态
func (t *Tracker) Paused() bool {
	return t.paused.Load()
}

// tickLoop 窗口轮询循环
func (t *Tracker) tickLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-ticker.C:
			if !t.paused.Load() {
				t.observe(t.now())
			}
		}
	}
}

// flushLoop 持续窗口的定期落库循环
func (t *Tracker) flushLoop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopChan:
			return
		case <-ticker.C:
			if !t.paused.Load() {
				t.flushUsage(t.now())
			}
		}
	}
}

// observe 执行一次前台窗口观测
// 窗口切换时：为上一个窗口结算时长（仅当未空闲），并记录一条 window_change 事件
func (t *Tracker) observe(now time.Time) {
	info, err := t.windows.Foreground()
	if err != nil {
		// 采集失败用哨兵值继续，绝不中断追踪
		slog.Debug("读取前台窗口失败", "error", err)
		info = collector.WindowInfo{
			Title:       collector.UnknownWindowTitle,
			Application: collector.UnknownApplication,
		}
	}

	t.mu.Lock()
	changed := info.Title != t.state.title || info.Application != t.state.app
	if !changed {
		t.mu.Unlock()
		return
	}

	var delta usageDelta
	if t.state.app != "" && !t.state.lastUpdate.IsZero() && now.Sub(t.state.lastInput) < t.idleThreshold {
		secs := int64(now.Sub(t.state.lastUpdate) / time.Second)
		if secs > 0 {
			delta = usageDelta{
				date:        now.Format(model.DateLayout),
				application: t.state.app,
				seconds:     secs,
			}
		} else if secs < 0 {
			slog.Warn("检测到时钟回拨，丢弃本段时长", "application", t.state.app)
		}
	}

	t.state.title = info.Title
	t.state.app = info.Application
	t.state.lastUpdate = now
	// 首次观测到窗口时把 lastInput 对齐到当前时刻，
	// 否则启动后长时间无输入的区间会被首次冲刷整段计入
	if t.state.lastInput.IsZero() {
		t.state.lastInput = now
	}
	t.mu.Unlock()

	t.appendEvent(&model.ActivityEvent{
		Timestamp:   now.UTC().Format(model.TimestampLayout),
		WindowTitle: info.Title,
		Application: info.Application,
		EventType:   model.EventWindowChange,
	})

	if delta.seconds > 0 {
		t.usage.Add(delta.date, delta.application, delta.seconds)
	}

	if t.bus != nil {
		t.bus.Publish(eventbus.Notification{
			Topic: eventbus.TopicWindowChange,
			Data: map[string]any{
				"application": info.Application,
				"title":       info.Title,
			},
		})
	}
}

// flushUsage 为持续停留的活跃窗口结算一段时长
// 计时终点取 min(now, lastInput)：输入停止后的尾巴不计入，
// 配合空闲判定保证空闲区间零累计
func (t *Tracker) flushUsage(now time.Time) {
	t.mu.Lock()
	var delta usageDelta
	if t.state.app != "" && !t.state.lastUpdate.IsZero() && now.Sub(t.state.lastInput) < t.idleThreshold {
		end := now
		if t.state.lastInput.Before(end) {
			end = t.state.lastInput
		}
		secs := int64(end.Sub(t.state.lastUpdate) / time.Second)
		if secs > 0 {
			delta = usageDelta{
				date:        now.Format(model.DateLayout),
				application: t.state.app,
				seconds:     secs,
			}
			// 按整秒推进，不足一秒的零头留给下一段
			t.state.lastUpdate = t.state.lastUpdate.Add(time.Duration(secs) * time.Second)
		}
	}
	t.mu.Unlock()

	if delta.seconds > 0 {
		t.usage.Add(delta.date, delta.application, delta.seconds)
		if t.bus != nil {
			t.bus.Publish(eventbus.Notification{
				Topic: eventbus.TopicUsageFlush,
				Data: map[string]any{
					"application": delta.application,
					"seconds":     delta.seconds,
				},
			})
		}
	}
}

// handleInput 输入回调：更新 lastInput 并记录一条输入事件
// 事件归属于回调时刻的当前窗口，窗口快照与状态更新在同一把锁内完成
func (t *Tracker) handleInput(ev collector.InputEvent) {
	if t.paused.Load() || !t.running.Load() {
		return
	}
	now := t.now()

	t.mu.Lock()
	// 从空闲中恢复：新计时段从第一次输入开始，空闲区间不补计
	if t.state.app != "" && now.Sub(t.state.lastInput) >= t.idleThreshold {
		t.state.lastUpdate = now
	}
	t.state.lastInput = now
	title, app := t.state.title, t.state.app
	t.mu.Unlock()

	if title == "" && app == "" {
		title, app = collector.UnknownWindowTitle, collector.UnknownApplication
	}

	t.appendEvent(&model.ActivityEvent{
		Timestamp:   now.UTC().Format(model.TimestampLayout),
		WindowTitle: title,
		Application: app,
		EventType:   string(ev.Kind),
		Details:     ev.Details,
	})
}

// appendEvent 写入事件，失败时进入有界暂存区
// 先尝试排空暂存区，保证同应用事件按观测顺序入库
func (t *Tracker) appendEvent(ev *model.ActivityEvent) {
	t.drainPending()

	t.pendingMu.Lock()
	hasBacklog := len(t.pending) > 0
	t.pendingMu.Unlock()

	if hasBacklog {
		t.buffer(ev)
		return
	}

	if err := t.appendWithRetry(ev); err != nil {
		slog.Warn("事件写入失败，进入暂存区", "event_type", ev.EventType, "error", err)
		t.buffer(ev)
	}
}

// appendWithRetry 带退避重试的单条写入
func (t *Tracker) appendWithRetry(ev *model.ActivityEvent) error {
	var err error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		if err = t.events.Append(context.Background(), ev); err == nil {
			return nil
		}
		if attempt < t.maxRetries {
			time.Sleep(t.backoff * time.Duration(attempt))
		}
	}
	return err
}

// buffer 事件进入暂存区，溢出丢最旧
func (t *Tracker) buffer(ev *model.ActivityEvent) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()

	if len(t.pending) >= t.pendingCap {
		t.pending = t.pending[1:]
		t.pendingDropped.Add(1)
		slog.Warn("事件暂存区已满，丢弃最旧事件")
	}
	t.pending = append(t.pending, ev)
}

// drainPending 尝试把暂存区事件按序补写入库
func (t *Tracker) drainPending() {
	t.pendingMu.Lock()
	if len(t.pending) == 0 {
		t.pendingMu.Unlock()
		return
	}
	backlog := t.pending
	t.pending = nil
	t.pendingMu.Unlock()

	for i, ev := range backlog {
		if err := t.events.Append(context.Background(), ev); err != nil {
			// 剩余部分放回，保持顺序
			t.pendingMu.Lock()
			t.pending = append(backlog[i:], t.pending...)
			if over := len(t.pending) - t.pendingCap; over > 0 {
				t.pending = t.pending[over:]
				t.pendingDropped.Add(int64(over))
			}
			t.pendingMu.Unlock()
			return
		}
	}
	slog.Debug("暂存区事件已补写", "count", len(backlog))
}

func (t *Tracker) publishState(state string) {
	if t.bus == nil {
		return
	}
	t.bus.Publish(eventbus.Notification{
		Topic: eventbus.TopicTrackerState,
		Data:  map[string]any{"state": state},
	})
}

// TrackerStats 追踪器运行状态
type TrackerStats struct {
	Running        bool   `json:"running"`
	Paused         bool   `json:"paused"`
	CurrentApp     string `json:"current_app"`
	CurrentTitle   string `json:"current_title"`
	PendingEvents  int    `json:"pending_events"`
	PendingDropped int64  `json:"pending_dropped"`
}

// Stats 返回运行状态快照
func (t *Tracker) Stats() TrackerStats {
	t.mu.Lock()
	app, title := t.state.app, t.state.title
	t.mu.Unlock()

	t.pendingMu.Lock()
	pending := len(t.pending)
	t.pendingMu.Unlock()

	return TrackerStats{
		Running:        t.running.Load(),
		Paused:         t.paused.Load(),
		CurrentApp:     app,
		CurrentTitle:   title,
		PendingEvents:  pending,
		PendingDropped: t.pendingDropped.Load(),
	}
}
