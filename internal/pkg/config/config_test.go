package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.App.Name != "taskmine" {
		t.Fatalf("name=%q, want taskmine", cfg.App.Name)
	}
	if cfg.Tracker.TickIntervalMs != 1000 || cfg.Tracker.FlushIntervalSec != 30 || cfg.Tracker.IdleThresholdSec != 60 {
		t.Fatalf("tracker defaults wrong: %+v", cfg.Tracker)
	}
	if cfg.Analyzer.Days != 7 || cfg.Analyzer.MinFrequency != 3 || cfg.Analyzer.SequenceLength != 3 {
		t.Fatalf("analyzer defaults wrong: %+v", cfg.Analyzer)
	}
	if cfg.Storage.RetainDays != 90 {
		t.Fatalf("retain_days=%d, want 90", cfg.Storage.RetainDays)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  log_level: debug
tracker:
  idle_threshold_sec: 120
storage:
  db_path: /tmp/taskmine-test.db
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.LogLevel != "debug" {
		t.Fatalf("log_level=%q, want debug", cfg.App.LogLevel)
	}
	if cfg.Tracker.IdleThresholdSec != 120 {
		t.Fatalf("idle_threshold_sec=%d, want 120", cfg.Tracker.IdleThresholdSec)
	}
	// 显式覆盖的绝对路径不再改写
	if cfg.Storage.DBPath != "/tmp/taskmine-test.db" {
		t.Fatalf("db_path=%q", cfg.Storage.DBPath)
	}
	// 未覆盖的字段保持默认
	if cfg.Tracker.TickIntervalMs != 1000 {
		t.Fatalf("tick_interval_ms=%d, want 1000", cfg.Tracker.TickIntervalMs)
	}
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := WriteFile(path, Default()); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.App.Name != "taskmine" || cfg.Analyzer.Days != 7 {
		t.Fatalf("round trip lost values: %+v", cfg)
	}
}
