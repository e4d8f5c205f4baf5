package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/arketic/taskmine/internal/model"
)

// FileEventRepository 文件事件仓储
type FileEventRepository struct {
	db *gorm.DB
}

// NewFileEventRepository 创建文件事件仓储
func NewFileEventRepository(db *gorm.DB) *FileEventRepository {
	return &FileEventRepository{db: db}
}

// Append 追加单个文件事件
func (r *FileEventRepository) Append(ctx context.Context, event *model.FileEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("写入文件事件失败: %w", err)
	}
	return nil
}

// GetSince 查询某时刻之后的文件事件，时间戳升序
func (r *FileEventRepository) GetSince(ctx context.Context, since string) ([]model.FileEvent, error) {
	var events []model.FileEvent
	err := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Find(&events).Error

	if err != nil {
		return nil, fmt.Errorf("查询文件事件失败: %w", err)
	}

	return events, nil
}

// CountByType 统计某时刻之后各事件类型的数量
func (r *FileEventRepository) CountByType(ctx context.Context, since string) (map[string]int64, error) {
	type row struct {
		EventType string
		Count     int64
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.FileEvent{}).
		Select("event_type, COUNT(*) as count").
		Where("timestamp >= ?", since).
		Group("event_type").
		Scan(&rows).Error

	if err != nil {
		return nil, fmt.Errorf("统计文件事件失败: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.EventType] = r.Count
	}
	return counts, nil
}
