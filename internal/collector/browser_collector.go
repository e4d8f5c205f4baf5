package collector

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/sqlite" // 注册纯 Go sqlite 驱动

	"github.com/arketic/taskmine/internal/model"
)

// webkitEpochOffsetMicro WebKit 时间戳（微秒，自 1601-01-01）到 Unix 的偏移
const webkitEpochOffsetMicro = 11644473600000000

// BrowserCollector 浏览器历史采集器
// 周期性复制 Chrome History 文件后做增量查询，避免锁定浏览器自己的数据库
type BrowserCollector struct {
	historyPath   string
	tempPath      string
	browser       string
	pollInterval  time.Duration
	lastVisitTime int64 // WebKit 微秒
	eventChan     chan *model.BrowserVisit
	stopChan      chan struct{}
	stopOnce      sync.Once
	running       bool
	mu            sync.Mutex
}

// BrowserCollectorConfig 配置
type BrowserCollectorConfig struct {
	HistoryPath  string        // History 文件路径（空则自动检测 Chrome）
	PollInterval time.Duration // 轮询间隔
	BufferSize   int
}

// NewBrowserCollector 创建浏览器采集器
func NewBrowserCollector(cfg *BrowserCollectorConfig) (*BrowserCollector, error) {
	if cfg == nil {
		cfg = &BrowserCollectorConfig{}
	}

	historyPath := cfg.HistoryPath
	if historyPath == "" {
		historyPath = chromeHistoryPath()
	}
	if historyPath == "" {
		return nil, fmt.Errorf("未找到 chrome history 文件")
	}
	if _, err := os.Stat(historyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("chrome history 文件不存在: %s", historyPath)
	}

	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 30 * time.Second
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	return &BrowserCollector{
		historyPath:  historyPath,
		tempPath:     filepath.Join(os.TempDir(), "taskmine_chrome_history.db"),
		browser:      "chrome",
		pollInterval: pollInterval,
		eventChan:    make(chan *model.BrowserVisit, bufferSize),
		stopChan:     make(chan struct{}),
	}, nil
}

// chromeHistoryPath 按平台确定 Chrome 默认 History 路径
func chromeHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data", "Default", "History")
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default", "History")
	case "linux":
		return filepath.Join(home, ".config", "google-chrome", "Default", "History")
	}
	return ""
}

// Start 启动采集
func (c *BrowserCollector) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	c.mu.Unlock()

	slog.Info("浏览器历史采集器启动", "history_path", c.historyPath, "poll_interval", c.pollInterval)
	go c.pollLoop(ctx)
	return nil
}

// Stop 停止采集（可重复调用）
func (c *BrowserCollector) Stop() error {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()

		close(c.stopChan)
		os.Remove(c.tempPath)
		slog.Info("浏览器历史采集器已停止")
	})
	return nil
}

// Events 返回事件通道
func (c *BrowserCollector) Events() <-chan *model.BrowserVisit {
	return c.eventChan
}

// pollLoop 轮询循环
func (c *BrowserCollector) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	// 首次获取只回看一小时
	c.lastVisitTime = time.Now().Add(-1*time.Hour).UnixMicro() + webkitEpochOffsetMicro

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.collectHistory()
		}
	}
}

// collectHistory 采集一轮历史记录
func (c *BrowserCollector) collectHistory() {
	if err := copyFile(c.historyPath, c.tempPath); err != nil {
		slog.Debug("复制 History 文件失败", "error", err)
		return
	}
	defer os.Remove(c.tempPath)

	db, err := sql.Open("sqlite", c.tempPath)
	if err != nil {
		slog.Debug("打开 History 数据库失败", "error", err)
		return
	}
	defer db.Close()

	// Chrome 使用 WebKit 时间戳：微秒，自 1601-01-01
	query := `
		SELECT urls.url, urls.title, visits.visit_time
		FROM visits
		JOIN urls ON visits.url = urls.id
		WHERE visits.visit_time > ?
		ORDER BY visits.visit_time ASC
		LIMIT 100
	`

	rows, err := db.Query(query, c.lastVisitTime)
	if err != nil {
		slog.Debug("查询历史记录失败", "error", err)
		return
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var urlStr, title string
		var visitTime int64

		if err := rows.Scan(&urlStr, &title, &visitTime); err != nil {
			continue
		}

		if visitTime > c.lastVisitTime {
			c.lastVisitTime = visitTime
		}

		if shouldSkipURL(urlStr) {
			continue
		}

		unixMicro := visitTime - webkitEpochOffsetMicro
		visit := &model.BrowserVisit{
			Timestamp: time.UnixMicro(unixMicro).UTC().Format(model.TimestampLayout),
			URL:       urlStr,
			Title:     title,
			Browser:   c.browser,
		}

		select {
		case c.eventChan <- visit:
			count++
		default:
			slog.Warn("浏览器事件缓冲区已满，丢弃事件")
		}
	}

	if count > 0 {
		slog.Debug("采集到浏览器历史", "count", count)
	}
}

// shouldSkipURL 过滤浏览器内部页面
func shouldSkipURL(url string) bool {
	prefixes := []string{"chrome://", "chrome-extension://", "about:", "edge://", "devtools://"}
	for _, p := range prefixes {
		if strings.HasPrefix(url, p) {
			return true
		}
	}
	return false
}

// copyFile 复制文件
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
