package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/arketic/taskmine/internal/model"
)

// UsageRepository 应用使用时长仓储
type UsageRepository struct {
	db *gorm.DB
}

// NewUsageRepository 创建使用时长仓储
func NewUsageRepository(db *gorm.DB) *UsageRepository {
	return &UsageRepository{db: db}
}

// UpsertUsage 对 (date, application) 累加时长，返回累加后的总秒数
// 事务内读改写，同 key 并发增量不会丢失；delta 为 0 时不改动任何行
func (r *UsageRepository) UpsertUsage(ctx context.Context, date, application string, deltaSeconds int64) (int64, error) {
	if deltaSeconds < 0 {
		return 0, fmt.Errorf("时长增量不能为负: %d", deltaSeconds)
	}

	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var record model.AppUsage
		err := tx.Where("date = ? AND application = ?", date, application).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if deltaSeconds == 0 {
				return nil
			}
			record = model.AppUsage{Date: date, Application: application, DurationSeconds: deltaSeconds}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("创建使用记录失败: %w", err)
			}
			total = record.DurationSeconds
			return nil
		}
		if err != nil {
			return fmt.Errorf("读取使用记录失败: %w", err)
		}

		total = record.DurationSeconds
		if deltaSeconds == 0 {
			return nil
		}

		total += deltaSeconds
		if err := tx.Model(&record).Update("duration_seconds", total).Error; err != nil {
			return fmt.Errorf("更新使用记录失败: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// GetUsage 查询单日使用记录，时长降序
func (r *UsageRepository) GetUsage(ctx context.Context, date string) ([]model.AppUsage, error) {
	var records []model.AppUsage
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Order("duration_seconds DESC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("查询使用记录失败: %w", err)
	}

	return records, nil
}

// GetUsageRange 查询截至 endDate 的最近 days 天使用记录，日期降序
func (r *UsageRepository) GetUsageRange(ctx context.Context, endDate string, days int) ([]model.AppUsage, error) {
	if days <= 1 {
		return r.GetUsage(ctx, endDate)
	}

	end, err := time.Parse(model.DateLayout, endDate)
	if err != nil {
		return nil, fmt.Errorf("解析日期失败: %w", err)
	}
	start := end.AddDate(0, 0, -(days - 1)).Format(model.DateLayout)

	var records []model.AppUsage
	err = r.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", start, endDate).
		Order("date DESC, duration_seconds DESC").
		Find(&records).Error

	if err != nil {
		return nil, fmt.Errorf("查询使用记录失败: %w", err)
	}

	return records, nil
}
