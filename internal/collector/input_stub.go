//go:build !windows

package collector

import "context"

// stubInputObserver 非 Windows 平台占位实现，不产生任何输入事件
type stubInputObserver struct{}

// NewInputObserver 创建当前平台的输入观察器
func NewInputObserver() InputObserver {
	return &stubInputObserver{}
}

func (o *stubInputObserver) Start(ctx context.Context, callback func(InputEvent)) error {
	return nil
}

func (o *stubInputObserver) Stop() error {
	return nil
}
