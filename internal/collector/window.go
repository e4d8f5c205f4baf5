package collector

import "fmt"

// 前台窗口读取失败时使用的哨兵值，采集失败绝不致命
const (
	UnknownWindowTitle = "Unknown Window"
	UnknownApplication = "Unknown Application"
)

// WindowInfo 前台窗口信息
type WindowInfo struct {
	Title       string // 窗口标题
	Application string // 应用进程名 (如 chrome.exe)
}

// String 格式化输出窗口信息
func (w WindowInfo) String() string {
	return fmt.Sprintf("[%s] %s", w.Application, w.Title)
}

// WindowObserver 前台窗口观察器（拉模式）
// 平台相关实现只负责读取，不持有任何状态
type WindowObserver interface {
	// Foreground 返回当前前台窗口信息
	Foreground() (WindowInfo, error)
}
