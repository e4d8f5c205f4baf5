package handler

import (
	"log/slog"

	"github.com/getlantern/systray"
)

// TrayHandler 系统托盘处理器
type TrayHandler struct {
	appName      string
	onOpenReport func()
	onPause      func() bool // 返回切换后是否处于暂停
	onQuit       func()
}

// TrayConfig 托盘配置
type TrayConfig struct {
	AppName      string
	OnOpenReport func()
	OnPause      func() bool
	OnQuit       func()
}

// NewTrayHandler 创建托盘处理器
func NewTrayHandler(cfg *TrayConfig) *TrayHandler {
	return &TrayHandler{
		appName:      cfg.AppName,
		onOpenReport: cfg.OnOpenReport,
		onPause:      cfg.OnPause,
		onQuit:       cfg.OnQuit,
	}
}

// Run 启动托盘（阻塞）
func (t *TrayHandler) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit 退出托盘
func (t *TrayHandler) Quit() {
	systray.Quit()
}

// SetStatus 更新托盘提示为当前活动状态
func (t *TrayHandler) SetStatus(status string) {
	systray.SetTooltip(t.appName + " - " + status)
}

func (t *TrayHandler) onReady() {
	systray.SetTitle(t.appName)
	systray.SetTooltip(t.appName + " - 任务挖掘助手")

	mReports := systray.AddMenuItem("打开报告目录", "查看生成的分析报告")
	systray.AddSeparator()
	mPause := systray.AddMenuItem("暂停追踪", "暂停活动采集与计时")
	mAutoStart := systray.AddMenuItemCheckbox("开机自启动", "设置开机自动启动", isAutoStartEnabled())
	systray.AddSeparator()
	mQuit := systray.AddMenuItem("退出", "退出 TaskMine")

	go func() {
		for {
			select {
			case <-mReports.ClickedCh:
				if t.onOpenReport != nil {
					t.onOpenReport()
				}
			case <-mPause.ClickedCh:
				if t.onPause != nil {
					if t.onPause() {
						mPause.SetTitle("恢复追踪")
					} else {
						mPause.SetTitle("暂停追踪")
					}
				}
			case <-mAutoStart.ClickedCh:
				if mAutoStart.Checked() {
					if err := disableAutoStart(); err != nil {
						slog.Warn("禁用开机自启动失败", "error", err)
					} else {
						mAutoStart.Uncheck()
					}
				} else {
					if err := enableAutoStart(); err != nil {
						slog.Warn("启用开机自启动失败", "error", err)
					} else {
						mAutoStart.Check()
					}
				}
			case <-mQuit.ClickedCh:
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *TrayHandler) onExit() {
	// 无需额外清理
}
