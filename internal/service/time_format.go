package service

import "fmt"

// FormatDuration 将秒数格式化为 HH:MM:SS
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// SecondsToMinutesFloor 将秒数转换为分钟数（向下取整）
func SecondsToMinutesFloor(seconds int64) int64 {
	if seconds <= 0 {
		return 0
	}
	return seconds / 60
}
