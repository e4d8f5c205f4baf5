package eventbus

import (
	"context"
	"sync"
	"time"
)

// 通知类型
const (
	TopicWindowChange = "window_change" // 前台窗口切换
	TopicUsageFlush   = "usage_flush"   // 使用时长落库
	TopicTrackerState = "tracker_state" // 追踪器启停/暂停
)

// Notification 进程内广播的轻量通知，托盘与 CLI 订阅展示用
type Notification struct {
	Topic     string         `json:"topic"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Hub 进程内发布订阅中心
type Hub struct {
	mu   sync.RWMutex
	subs map[chan Notification]struct{}
}

// NewHub 创建 Hub
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Notification]struct{})}
}

// Publish 广播通知
func (h *Hub) Publish(n Notification) {
	if h == nil {
		return
	}
	if n.Timestamp == 0 {
		n.Timestamp = time.Now().UnixMilli()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			// 慢消费者直接丢弃，避免阻塞采集链路
		}
	}
}

// Subscribe 订阅通知，ctx 结束时自动退订
func (h *Hub) Subscribe(ctx context.Context, buffer int) <-chan Notification {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Notification, buffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
		close(ch)
	}()

	return ch
}
