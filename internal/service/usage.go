package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// UsageStore 使用时长持久化，由 repository.UsageRepository 实现
type UsageStore interface {
	UpsertUsage(ctx context.Context, date, application string, deltaSeconds int64) (int64, error)
}

// usageDelta 待落库的时长增量
type usageDelta struct {
	date        string
	application string
	seconds     int64
}

// UsageAggregator 使用时长聚合器
// 单一 writer 串行消费队列，同 key 增量按产生顺序应用，读改写不会交错
type UsageAggregator struct {
	store UsageStore

	mu    sync.Mutex
	queue []usageDelta

	notify   chan struct{}
	stopChan chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	maxQueue   int
	maxRetries int
	backoff    time.Duration
	dropped    atomic.Int64
}

// UsageAggregatorConfig 配置
type UsageAggregatorConfig struct {
	MaxQueue   int // 内存队列上限，溢出丢弃最旧增量
	MaxRetries int // 单条增量的落库重试次数
	BackoffMs  int // 重试退避基数（毫秒）
}

// DefaultUsageAggregatorConfig 默认配置
func DefaultUsageAggregatorConfig() *UsageAggregatorConfig {
	return &UsageAggregatorConfig{
		MaxQueue:   1024,
		MaxRetries: 3,
		BackoffMs:  200,
	}
}

// NewUsageAggregator 创建聚合器
func NewUsageAggregator(store UsageStore, cfg *UsageAggregatorConfig) *UsageAggregator {
	if cfg == nil {
		cfg = DefaultUsageAggregatorConfig()
	}
	if cfg.MaxQueue <= 0 {
		cfg.MaxQueue = 1024
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMs <= 0 {
		cfg.BackoffMs = 200
	}

	return &UsageAggregator{
		store:      store,
		notify:     make(chan struct{}, 1),
		stopChan:   make(chan struct{}),
		done:       make(chan struct{}),
		maxQueue:   cfg.MaxQueue,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMs) * time.Millisecond,
	}
}

// Start 启动写入协程
func (a *UsageAggregator) Start() {
	if a.running.Load() {
		return
	}
	a.running.Store(true)

	slog.Info("使用时长聚合器启动", "max_queue", a.maxQueue)
	go a.writerLoop()
}

// Stop 停止聚合器，尽量把队列剩余增量落库
func (a *UsageAggregator) Stop() {
	if !a.running.Load() {
		return
	}
	a.stopOnce.Do(func() {
		close(a.stopChan)
		<-a.done
		a.running.Store(false)
		slog.Info("使用时长聚合器已停止")
	})
}

// Add 提交一条时长增量
// 零增量为幂等空操作；负增量视为时钟异常，丢弃并记录
func (a *UsageAggregator) Add(date, application string, deltaSeconds int64) {
	if deltaSeconds == 0 {
		return
	}
	if deltaSeconds < 0 {
		slog.Warn("丢弃负时长增量", "application", application, "delta", deltaSeconds)
		return
	}

	a.mu.Lock()
	if len(a.queue) >= a.maxQueue {
		// 溢出时丢最旧的一条，绝不阻塞采集链路
		dropped := a.queue[0]
		a.queue = a.queue[1:]
		a.dropped.Add(1)
		slog.Warn("时长队列已满，丢弃最旧增量",
			"application", dropped.application,
			"seconds", dropped.seconds,
		)
	}
	a.queue = append(a.queue, usageDelta{date: date, application: application, seconds: deltaSeconds})
	a.mu.Unlock()

	select {
	case a.notify <- struct{}{}:
	default:
	}
}

// writerLoop 单一写入协程
func (a *UsageAggregator) writerLoop() {
	defer close(a.done)

	for {
		select {
		case <-a.stopChan:
			a.drain()
			return
		case <-a.notify:
			a.flushQueue()
		}
	}
}

// flushQueue 逐条弹出队头并落库
func (a *UsageAggregator) flushQueue() {
	for {
		delta, ok := a.pop()
		if !ok {
			return
		}

		if !a.write(delta) {
			// 持久失败：放回队头，等下一轮通知或停止信号
			a.mu.Lock()
			a.queue = append([]usageDelta{delta}, a.queue...)
			a.mu.Unlock()

			select {
			case <-a.stopChan:
			case <-time.After(a.backoff * time.Duration(a.maxRetries)):
				select {
				case a.notify <- struct{}{}:
				default:
				}
			}
			return
		}
	}
}

// drain 停止时的最终落库，每条只试一次
func (a *UsageAggregator) drain() {
	for {
		delta, ok := a.pop()
		if !ok {
			return
		}
		if _, err := a.store.UpsertUsage(context.Background(), delta.date, delta.application, delta.seconds); err != nil {
			slog.Error("停止时落库失败，丢弃增量", "application", delta.application, "error", err)
		}
	}
}

func (a *UsageAggregator) pop() (usageDelta, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.queue) == 0 {
		return usageDelta{}, false
	}
	delta := a.queue[0]
	a.queue = a.queue[1:]
	return delta, true
}

// write 带退避重试的单条落库
func (a *UsageAggregator) write(delta usageDelta) bool {
	ctx := context.Background()
	for attempt := 1; attempt <= a.maxRetries; attempt++ {
		total, err := a.store.UpsertUsage(ctx, delta.date, delta.application, delta.seconds)
		if err == nil {
			slog.Debug("使用时长落库",
				"application", delta.application,
				"delta", delta.seconds,
				"total", total,
			)
			return true
		}

		slog.Warn("使用时长落库失败", "attempt", attempt, "error", err)
		if attempt < a.maxRetries {
			select {
			case <-a.stopChan:
				return false
			case <-time.After(a.backoff * time.Duration(attempt)):
			}
		}
	}
	return false
}

// QueueLen 当前队列长度
func (a *UsageAggregator) QueueLen() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.queue)
}

// Dropped 因溢出被丢弃的增量数
func (a *UsageAggregator) Dropped() int64 {
	return a.dropped.Load()
}
