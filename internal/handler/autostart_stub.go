//go:build !windows

package handler

import "errors"

// 非 Windows 平台暂不支持开机自启

func isAutoStartEnabled() bool {
	return false
}

func enableAutoStart() error {
	return errors.New("当前平台不支持开机自启动")
}

func disableAutoStart() error {
	return errors.New("当前平台不支持开机自启动")
}
