package collector

import "context"

// InputKind 输入类型
type InputKind string

const (
	InputKeyboard   InputKind = "keyboard"
	InputMouseClick InputKind = "mouse_click"
)

// InputEvent 单次键鼠输入
// Details 只携带脱敏后的描述（按键类别、鼠标按钮），不含原始按键内容
type InputEvent struct {
	Kind    InputKind
	Details string
}

// InputObserver 输入观察器（推模式）
// Start 启动后按事件调用 callback，callback 内除获取状态锁外不得阻塞
type InputObserver interface {
	Start(ctx context.Context, callback func(InputEvent)) error
	Stop() error
}
