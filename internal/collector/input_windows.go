//go:build windows

package collector

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

var procGetAsyncKeyState = user32.NewProc("GetAsyncKeyState")

const (
	vkLButton = 0x01
	vkRButton = 0x02
	vkMButton = 0x04
	// 0x08 起为键盘键，鼠标滚轮/扩展键不关心
	vkFirstKey = 0x08
	vkLastKey  = 0xFE
)

// Win32InputObserver 基于 GetAsyncKeyState 轮询的输入观察器
// 不注入全局钩子，只读按键状态位，按下沿触发回调
type Win32InputObserver struct {
	pollInterval time.Duration
	stopChan     chan struct{}
	stopOnce     sync.Once
	running      bool
	mu           sync.Mutex
	prevDown     [256]bool
}

// NewInputObserver 创建当前平台的输入观察器
func NewInputObserver() InputObserver {
	return &Win32InputObserver{
		pollInterval: 50 * time.Millisecond,
		stopChan:     make(chan struct{}),
	}
}

// Start 启动输入轮询
func (o *Win32InputObserver) Start(ctx context.Context, callback func(InputEvent)) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = true
	o.mu.Unlock()

	slog.Info("输入观察器启动", "poll_interval", o.pollInterval)
	go o.pollLoop(ctx, callback)
	return nil
}

// Stop 停止输入轮询（可重复调用）
func (o *Win32InputObserver) Stop() error {
	o.stopOnce.Do(func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
		close(o.stopChan)
		slog.Info("输入观察器已停止")
	})
	return nil
}

func (o *Win32InputObserver) pollLoop(ctx context.Context, callback func(InputEvent)) {
	ticker := time.NewTicker(o.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-o.stopChan:
			return
		case <-ticker.C:
			o.scan(callback)
		}
	}
}

// scan 扫描一轮按键状态，新按下的键触发回调
func (o *Win32InputObserver) scan(callback func(InputEvent)) {
	for vk := vkLButton; vk <= vkLastKey; vk++ {
		state, _, _ := procGetAsyncKeyState.Call(uintptr(vk))
		down := state&0x8000 != 0

		if down && !o.prevDown[vk] {
			if ev, ok := classifyKey(vk); ok {
				callback(ev)
			}
		}
		o.prevDown[vk] = down
	}
}

// classifyKey 将虚拟键码归类为输入事件，按键内容不外泄
func classifyKey(vk int) (InputEvent, bool) {
	switch vk {
	case vkLButton:
		return InputEvent{Kind: InputMouseClick, Details: "button=left"}, true
	case vkRButton:
		return InputEvent{Kind: InputMouseClick, Details: "button=right"}, true
	case vkMButton:
		return InputEvent{Kind: InputMouseClick, Details: "button=middle"}, true
	}
	if vk < vkFirstKey {
		return InputEvent{}, false
	}
	// 0-9 与 A-Z 的虚拟键码与 ASCII 一致
	if (vk >= '0' && vk <= '9') || (vk >= 'A' && vk <= 'Z') {
		return InputEvent{Kind: InputKeyboard, Details: "[KEY]"}, true
	}
	return InputEvent{Kind: InputKeyboard, Details: "[SPECIAL_KEY]"}, true
}
