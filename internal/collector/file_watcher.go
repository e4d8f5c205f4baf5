package collector

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arketic/taskmine/internal/model"
)

// FileWatcher 文件系统监控采集器
// 递归监控配置目录，产出 created/deleted/modified/renamed 文件事件
type FileWatcher struct {
	watcher     *fsnotify.Watcher
	watchPaths  []string
	eventChan   chan *model.FileEvent
	stopChan    chan struct{}
	running     bool
	mu          sync.Mutex
	stopOnce    sync.Once
	debounceMap map[string]time.Time // 防抖：file -> 最后一次 modified
	debounceDur time.Duration
}

// FileWatcherConfig 配置
type FileWatcherConfig struct {
	WatchPaths  []string // 监控的目录列表，空则使用用户下载目录
	BufferSize  int      // 事件缓冲区大小
	DebounceSec int      // modified 事件防抖时间（秒）
}

// DefaultFileWatcherConfig 默认配置
func DefaultFileWatcherConfig() *FileWatcherConfig {
	return &FileWatcherConfig{
		WatchPaths:  []string{},
		BufferSize:  512,
		DebounceSec: 2,
	}
}

// NewFileWatcher 创建文件监控采集器
func NewFileWatcher(cfg *FileWatcherConfig) (*FileWatcher, error) {
	if cfg == nil {
		cfg = DefaultFileWatcherConfig()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	paths := cfg.WatchPaths
	if len(paths) == 0 {
		if home, err := os.UserHomeDir(); err == nil {
			paths = []string{filepath.Join(home, "Downloads")}
		}
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 512
	}

	return &FileWatcher{
		watcher:     watcher,
		watchPaths:  paths,
		eventChan:   make(chan *model.FileEvent, bufferSize),
		stopChan:    make(chan struct{}),
		debounceMap: make(map[string]time.Time),
		debounceDur: time.Duration(cfg.DebounceSec) * time.Second,
	}, nil
}

// Start 启动监控
func (w *FileWatcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	watched := 0
	for _, path := range w.watchPaths {
		if err := w.addWatchPath(path); err != nil {
			slog.Warn("添加监控目录失败", "path", path, "error", err)
			continue
		}
		watched++
	}
	if watched == 0 {
		return fmt.Errorf("没有可监控的目录")
	}

	slog.Info("文件监控启动", "paths", w.watchPaths)
	go w.eventLoop()
	return nil
}

// Stop 停止监控（可重复调用）
func (w *FileWatcher) Stop() error {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()

		close(w.stopChan)
		w.watcher.Close()
		slog.Info("文件监控已停止")
	})
	return nil
}

// Events 返回事件通道
func (w *FileWatcher) Events() <-chan *model.FileEvent {
	return w.eventChan
}

// addWatchPath 递归添加监控路径
func (w *FileWatcher) addWatchPath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("获取绝对路径失败: %w", err)
	}

	return filepath.Walk(absPath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		// 跳过隐藏目录和常见的忽略目录
		base := filepath.Base(p)
		if p != absPath && (strings.HasPrefix(base, ".") ||
			base == "node_modules" ||
			base == "vendor" ||
			base == "__pycache__") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(p); err != nil {
			slog.Warn("添加监控目录失败", "path", p, "error", err)
		} else {
			slog.Debug("添加监控目录", "path", p)
		}
		return nil
	})
}

// eventLoop 消费 fsnotify 事件
func (w *FileWatcher) eventLoop() {
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFsEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("文件监控错误", "error", err)
		}
	}
}

// handleFsEvent 转换单个 fsnotify 事件
func (w *FileWatcher) handleFsEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Has(fsnotify.Create):
		eventType = model.FileCreated
		// 新建目录纳入监控
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				slog.Debug("添加新目录监控失败", "path", event.Name, "error", err)
			}
			return
		}
	case event.Has(fsnotify.Remove):
		eventType = model.FileDeleted
	case event.Has(fsnotify.Write):
		eventType = model.FileModified
	case event.Has(fsnotify.Rename):
		eventType = model.FileRenamed
	default:
		return
	}

	// 编辑器连续写盘只记一次
	if eventType == model.FileModified {
		now := time.Now()
		if last, ok := w.debounceMap[event.Name]; ok && now.Sub(last) < w.debounceDur {
			return
		}
		w.debounceMap[event.Name] = now
	}

	fileEvent := &model.FileEvent{
		Timestamp: time.Now().UTC().Format(model.TimestampLayout),
		FilePath:  event.Name,
		EventType: eventType,
	}

	select {
	case w.eventChan <- fileEvent:
		slog.Debug("文件事件", "path", event.Name, "type", eventType)
	default:
		slog.Warn("文件事件缓冲区已满，丢弃事件", "path", event.Name)
	}
}
