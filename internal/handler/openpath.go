package handler

import (
	"log/slog"
	"os/exec"
	"runtime"
)

// OpenPath 用系统文件管理器打开目录
func OpenPath(path string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("explorer", path)
	case "darwin":
		cmd = exec.Command("open", path)
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		slog.Warn("打开目录失败", "path", path, "error", err)
	}
}
