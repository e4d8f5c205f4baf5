//go:build !windows

package collector

import "errors"

// stubWindowObserver 非 Windows 平台占位实现
// 追踪器读取失败时会用哨兵值继续运行
type stubWindowObserver struct{}

// NewWindowObserver 创建当前平台的窗口观察器
func NewWindowObserver() WindowObserver {
	return &stubWindowObserver{}
}

func (o *stubWindowObserver) Foreground() (WindowInfo, error) {
	return WindowInfo{}, errors.New("当前平台不支持前台窗口读取")
}
