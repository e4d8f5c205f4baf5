//go:build windows

package collector

import (
	"errors"
	"log/slog"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	kernel32                     = windows.NewLazySystemDLL("kernel32.dll")
	psapi                        = windows.NewLazySystemDLL("psapi.dll")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procOpenProcess              = kernel32.NewProc("OpenProcess")
	procGetModuleBaseNameW       = psapi.NewProc("GetModuleBaseNameW")
)

const (
	processQueryInformation = 0x0400
	processVMRead           = 0x0010
)

// Win32WindowObserver 基于 user32 的前台窗口观察器
type Win32WindowObserver struct{}

// NewWindowObserver 创建当前平台的窗口观察器
func NewWindowObserver() WindowObserver {
	return &Win32WindowObserver{}
}

// Foreground 获取当前前台窗口信息
func (o *Win32WindowObserver) Foreground() (WindowInfo, error) {
	hwnd, _, _ := procGetForegroundWindow.Call()
	if hwnd == 0 {
		return WindowInfo{}, errors.New("无法获取前台窗口")
	}

	title, err := getWindowText(hwnd)
	if err != nil {
		slog.Debug("获取窗口标题失败", "error", err)
		title = ""
	}

	var pid uint32
	procGetWindowThreadProcessId.Call(hwnd, uintptr(unsafe.Pointer(&pid)))

	return WindowInfo{
		Title:       title,
		Application: getProcessName(pid),
	}, nil
}

// getWindowText 获取窗口标题
func getWindowText(hwnd uintptr) (string, error) {
	length, _, _ := procGetWindowTextLengthW.Call(hwnd)
	if length == 0 {
		return "", nil
	}

	buf := make([]uint16, length+1)
	procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), length+1)

	return syscall.UTF16ToString(buf), nil
}

// getProcessName 根据进程 ID 获取进程名
func getProcessName(pid uint32) string {
	handle, _, err := procOpenProcess.Call(
		processQueryInformation|processVMRead,
		0,
		uintptr(pid),
	)
	if handle == 0 {
		slog.Debug("打开进程失败", "pid", pid, "error", err)
		return UnknownApplication
	}
	defer windows.CloseHandle(windows.Handle(handle))

	buf := make([]uint16, windows.MAX_PATH)
	ret, _, _ := procGetModuleBaseNameW.Call(
		handle,
		0,
		uintptr(unsafe.Pointer(&buf[0])),
		windows.MAX_PATH,
	)
	if ret == 0 {
		return UnknownApplication
	}

	return syscall.UTF16ToString(buf)
}
