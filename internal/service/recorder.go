package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/arketic/taskmine/internal/model"
	"github.com/arketic/taskmine/internal/repository"
)

// FileEventRecorder 把文件监控采集器的事件落库
type FileEventRecorder struct {
	events   <-chan *model.FileEvent
	repo     *repository.FileEventRepository
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	written  atomic.Int64
}

// NewFileEventRecorder 创建文件事件记录器
func NewFileEventRecorder(events <-chan *model.FileEvent, repo *repository.FileEventRepository) *FileEventRecorder {
	return &FileEventRecorder{
		events:   events,
		repo:     repo,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动消费循环
func (r *FileEventRecorder) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case event, ok := <-r.events:
				if !ok {
					return
				}
				if err := r.repo.Append(context.Background(), event); err != nil {
					slog.Warn("文件事件落库失败", "path", event.FilePath, "error", err)
					continue
				}
				r.written.Add(1)
			}
		}
	}()
}

// Stop 停止消费
func (r *FileEventRecorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		<-r.done
	})
}

// Written 已落库的事件数
func (r *FileEventRecorder) Written() int64 {
	return r.written.Load()
}

// BrowserVisitRecorder 把浏览器采集器的访问记录去重落库
type BrowserVisitRecorder struct {
	visits   <-chan *model.BrowserVisit
	repo     *repository.BrowserVisitRepository
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	written  atomic.Int64
}

// NewBrowserVisitRecorder 创建访问记录器
func NewBrowserVisitRecorder(visits <-chan *model.BrowserVisit, repo *repository.BrowserVisitRepository) *BrowserVisitRecorder {
	return &BrowserVisitRecorder{
		visits:   visits,
		repo:     repo,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start 启动消费循环
func (r *BrowserVisitRecorder) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case visit, ok := <-r.visits:
				if !ok {
					return
				}
				created, err := r.repo.CreateIfAbsent(context.Background(), visit)
				if err != nil {
					slog.Warn("访问记录落库失败", "url", visit.URL, "error", err)
					continue
				}
				if created {
					r.written.Add(1)
				}
			}
		}
	}()
}

// Stop 停止消费
func (r *BrowserVisitRecorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		<-r.done
	})
}

// Written 已落库的记录数
func (r *BrowserVisitRecorder) Written() int64 {
	return r.written.Load()
}
