package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// DefaultConfigPath 返回可执行文件目录下的默认配置路径
func DefaultConfigPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("获取可执行文件路径失败: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), "config", "config.yaml"), nil
}

// WriteFile 把配置写入 YAML 文件，首次启动时生成默认配置用
func WriteFile(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("cfg 不能为空")
	}
	if path == "" {
		return fmt.Errorf("path 不能为空")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	payload := map[string]any{
		"app": map[string]any{
			"name":      cfg.App.Name,
			"log_level": cfg.App.LogLevel,
		},
		"tracker": map[string]any{
			"tick_interval_ms":   cfg.Tracker.TickIntervalMs,
			"flush_interval_sec": cfg.Tracker.FlushIntervalSec,
			"idle_threshold_sec": cfg.Tracker.IdleThresholdSec,
			"pending_cap":        cfg.Tracker.PendingCap,
			"max_retries":        cfg.Tracker.MaxRetries,
			"backoff_ms":         cfg.Tracker.BackoffMs,
		},
		"watcher": map[string]any{
			"enabled":      cfg.Watcher.Enabled,
			"paths":        cfg.Watcher.Paths,
			"buffer_size":  cfg.Watcher.BufferSize,
			"debounce_sec": cfg.Watcher.DebounceSec,
		},
		"browser": map[string]any{
			"enabled":           cfg.Browser.Enabled,
			"history_path":      cfg.Browser.HistoryPath,
			"poll_interval_sec": cfg.Browser.PollIntervalSec,
		},
		"analyzer": map[string]any{
			"days":            cfg.Analyzer.Days,
			"min_frequency":   cfg.Analyzer.MinFrequency,
			"sequence_length": cfg.Analyzer.SequenceLength,
			"top_sequences":   cfg.Analyzer.TopSequences,
			"top_apps":        cfg.Analyzer.TopApps,
			"reports_dir":     cfg.Analyzer.ReportsDir,
		},
		"storage": map[string]any{
			"db_path":     cfg.Storage.DBPath,
			"retain_days": cfg.Storage.RetainDays,
		},
	}

	data, err := yaml.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
