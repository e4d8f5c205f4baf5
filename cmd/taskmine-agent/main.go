package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/arketic/taskmine/internal/bootstrap"
	"github.com/arketic/taskmine/internal/eventbus"
	"github.com/arketic/taskmine/internal/handler"
	"github.com/arketic/taskmine/internal/pkg/buildinfo"
	"github.com/arketic/taskmine/internal/pkg/config"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 首次运行时写出默认配置，便于用户查看与修改
	cfgPath, cfgErr := config.DefaultConfigPath()
	if cfgErr == nil {
		if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
			_ = config.WriteFile(cfgPath, config.Default())
		}
	}

	rt, err := bootstrap.NewAgentRuntime(ctx, cfgPath)
	if err != nil {
		slog.Error("启动 Agent 失败", "error", err)
		os.Exit(1)
	}
	defer rt.Close()

	slog.Info("TaskMine Agent 已启动", "name", rt.Cfg.App.Name, "version", buildinfo.Version)

	// ========== 系统托盘 ==========
	quitChan := make(chan struct{})

	tray := handler.NewTrayHandler(&handler.TrayConfig{
		AppName: rt.Cfg.App.Name,
		OnOpenReport: func() {
			handler.OpenPath(rt.Cfg.Analyzer.ReportsDir)
		},
		OnPause: func() bool {
			tracker := rt.Runtime.Tracker
			if tracker == nil {
				return false
			}
			if tracker.Paused() {
				tracker.Resume()
			} else {
				tracker.Pause()
			}
			return tracker.Paused()
		},
		OnQuit: func() {
			slog.Info("从托盘退出")
			close(quitChan)
		},
	})

	// 追踪器状态变化同步到托盘提示
	go func() {
		for n := range rt.Hub.Subscribe(ctx, 8) {
			if n.Topic != eventbus.TopicTrackerState {
				continue
			}
			if state, ok := n.Data["state"].(string); ok {
				tray.SetStatus(state)
			}
		}
	}()

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			slog.Info("收到系统退出信号")
			tray.Quit()
		case <-quitChan:
			// 从托盘菜单退出
			tray.Quit()
		}
	}()

	// 运行托盘（阻塞）
	tray.Run()

	slog.Info("正在关闭...")
	cancel()
	slog.Info("TaskMine Agent 已退出")
}
