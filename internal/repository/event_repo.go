package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/arketic/taskmine/internal/model"
)

// EventRepository 活动事件仓储（append-only）
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository 创建事件仓储
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Append 追加单个事件
func (r *EventRepository) Append(ctx context.Context, event *model.ActivityEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("写入事件失败: %w", err)
	}
	return nil
}

// EventFilter 事件查询条件，零值字段不参与过滤
type EventFilter struct {
	EventType string
	StartTime string // ISO-8601，含
	EndTime   string // ISO-8601，含
	Limit     int
}

// Query 按条件查询事件，时间戳降序
func (r *EventRepository) Query(ctx context.Context, f EventFilter) ([]model.ActivityEvent, error) {
	query := r.db.WithContext(ctx).Model(&model.ActivityEvent{})

	if f.EventType != "" {
		query = query.Where("event_type = ?", f.EventType)
	}
	if f.StartTime != "" {
		query = query.Where("timestamp >= ?", f.StartTime)
	}
	if f.EndTime != "" {
		query = query.Where("timestamp <= ?", f.EndTime)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var events []model.ActivityEvent
	if err := query.Order("timestamp DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, fmt.Errorf("查询事件失败: %w", err)
	}

	return events, nil
}

// WindowChangesSince 查询某时刻之后的窗口切换事件，时间戳升序
// 序列挖掘依赖升序扫描
func (r *EventRepository) WindowChangesSince(ctx context.Context, since string) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	err := r.db.WithContext(ctx).
		Where("event_type = ? AND timestamp >= ?", model.EventWindowChange, since).
		Order("timestamp ASC").
		Find(&events).Error

	if err != nil {
		return nil, fmt.Errorf("查询窗口切换事件失败: %w", err)
	}

	return events, nil
}

// Count 统计事件总数
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ActivityEvent{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计事件失败: %w", err)
	}
	return count, nil
}

// DeleteOldEvents 删除旧事件（保留最近 N 天）
func (r *EventRepository) DeleteOldEvents(ctx context.Context, retainDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retainDays).Format(model.TimestampLayout)

	result := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&model.ActivityEvent{})

	if result.Error != nil {
		return 0, fmt.Errorf("删除旧事件失败: %w", result.Error)
	}

	slog.Info("清理旧事件", "deleted", result.RowsAffected, "retain_days", retainDays)
	return result.RowsAffected, nil
}
