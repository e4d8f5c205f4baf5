package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Tracker  TrackerConfig  `mapstructure:"tracker"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Browser  BrowserConfig  `mapstructure:"browser"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

// TrackerConfig 追踪器配置
type TrackerConfig struct {
	TickIntervalMs   int `mapstructure:"tick_interval_ms"`
	FlushIntervalSec int `mapstructure:"flush_interval_sec"`
	IdleThresholdSec int `mapstructure:"idle_threshold_sec"`
	PendingCap       int `mapstructure:"pending_cap"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffMs        int `mapstructure:"backoff_ms"`
}

// WatcherConfig 文件监控配置
type WatcherConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Paths       []string `mapstructure:"paths"`
	BufferSize  int      `mapstructure:"buffer_size"`
	DebounceSec int      `mapstructure:"debounce_sec"`
}

// BrowserConfig 浏览器历史采集配置
type BrowserConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	HistoryPath     string `mapstructure:"history_path"`
	PollIntervalSec int    `mapstructure:"poll_interval_sec"`
}

// AnalyzerConfig 分析配置
type AnalyzerConfig struct {
	Days           int    `mapstructure:"days"`
	MinFrequency   int    `mapstructure:"min_frequency"`
	SequenceLength int    `mapstructure:"sequence_length"`
	TopSequences   int    `mapstructure:"top_sequences"`
	TopApps        int    `mapstructure:"top_apps"`
	ReportsDir     string `mapstructure:"reports_dir"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	DBPath     string `mapstructure:"db_path"`
	RetainDays int    `mapstructure:"retain_days"`
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// 支持环境变量
	v.SetEnvPrefix("TASKMINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Warn("配置文件未找到，使用默认配置")
		} else {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	} else {
		slog.Info("加载配置文件", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// 处理相对路径
	cfg.Storage.DBPath = resolvePath(cfg.Storage.DBPath)
	cfg.Analyzer.ReportsDir = resolvePath(cfg.Analyzer.ReportsDir)

	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "taskmine")
	v.SetDefault("app.log_level", "info")

	// Tracker
	v.SetDefault("tracker.tick_interval_ms", 1000)
	v.SetDefault("tracker.flush_interval_sec", 30)
	v.SetDefault("tracker.idle_threshold_sec", 60)
	v.SetDefault("tracker.pending_cap", 256)
	v.SetDefault("tracker.max_retries", 3)
	v.SetDefault("tracker.backoff_ms", 100)

	// Watcher
	v.SetDefault("watcher.enabled", true)
	v.SetDefault("watcher.paths", []string{})
	v.SetDefault("watcher.buffer_size", 512)
	v.SetDefault("watcher.debounce_sec", 2)

	// Browser
	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.history_path", "")
	v.SetDefault("browser.poll_interval_sec", 30)

	// Analyzer
	v.SetDefault("analyzer.days", 7)
	v.SetDefault("analyzer.min_frequency", 3)
	v.SetDefault("analyzer.sequence_length", 3)
	v.SetDefault("analyzer.top_sequences", 5)
	v.SetDefault("analyzer.top_apps", 3)
	v.SetDefault("analyzer.reports_dir", "./data/reports")

	// Storage
	v.SetDefault("storage.db_path", "./data/taskmine.db")
	v.SetDefault("storage.retain_days", 90)
}

// resolvePath 解析相对路径为可执行文件目录下的绝对路径
func resolvePath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}

	exe, err := os.Executable()
	if err != nil {
		return path
	}

	return filepath.Join(filepath.Dir(exe), path)
}

// SetupLogger 根据配置设置日志级别
func SetupLogger(level string) {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
