package model

import "time"

// 事件类型
const (
	EventWindowChange = "window_change"
	EventKeyboard     = "keyboard"
	EventMouseClick   = "mouse_click"
)

// TimestampLayout 事件时间戳统一使用 ISO-8601（RFC3339），
// 写入前先转 UTC，固定偏移量下字符串按字典序即时间序，
// 便于任何后端存储做范围查询。
const TimestampLayout = time.RFC3339

// DateLayout 日期统一使用 YYYY-MM-DD
const DateLayout = "2006-01-02"

// ActivityEvent 原始活动事件 - 记录窗口切换与键鼠输入
// 一旦写入即不可变
type ActivityEvent struct {
	ID            int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp     string  `gorm:"size:35;index" json:"timestamp"`    // ISO-8601
	WindowTitle   string  `gorm:"type:text" json:"window_title"`     // 事件发生时的窗口标题
	Application   string  `gorm:"size:255;index" json:"application"` // 应用进程名
	EventType     string  `gorm:"size:20;index" json:"event_type"`   // window_change / keyboard / mouse_click
	Details       string  `gorm:"type:text" json:"details"`          // 事件详情（按键、坐标等）
	ScreenshotRef *string `gorm:"size:500" json:"screenshot_ref"`    // 截图引用，采集由外部组件负责
}

// TableName 指定表名
func (ActivityEvent) TableName() string {
	return "activity_events"
}

// NewActivityEvent 创建新事件，时间戳取当前时间
func NewActivityEvent(eventType, windowTitle, application, details string) *ActivityEvent {
	return &ActivityEvent{
		Timestamp:   time.Now().UTC().Format(TimestampLayout),
		WindowTitle: windowTitle,
		Application: application,
		EventType:   eventType,
		Details:     details,
	}
}
