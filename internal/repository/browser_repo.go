package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/arketic/taskmine/internal/model"
)

// BrowserVisitRepository 浏览器访问记录仓储
type BrowserVisitRepository struct {
	db *gorm.DB
}

// NewBrowserVisitRepository 创建浏览器访问记录仓储
func NewBrowserVisitRepository(db *gorm.DB) *BrowserVisitRepository {
	return &BrowserVisitRepository{db: db}
}

// CreateIfAbsent 写入访问记录，(url, timestamp) 已存在时跳过
// 返回是否实际写入
func (r *BrowserVisitRepository) CreateIfAbsent(ctx context.Context, visit *model.BrowserVisit) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.BrowserVisit{}).
		Where("url = ? AND timestamp = ?", visit.URL, visit.Timestamp).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("查重访问记录失败: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	if err := r.db.WithContext(ctx).Create(visit).Error; err != nil {
		return false, fmt.Errorf("写入访问记录失败: %w", err)
	}
	return true, nil
}

// GetSince 查询某时刻之后的访问记录，时间戳升序
func (r *BrowserVisitRepository) GetSince(ctx context.Context, since string) ([]model.BrowserVisit, error) {
	var visits []model.BrowserVisit
	err := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Find(&visits).Error

	if err != nil {
		return nil, fmt.Errorf("查询访问记录失败: %w", err)
	}

	return visits, nil
}

// GetByBrowser 按浏览器查询访问记录，时间戳降序
func (r *BrowserVisitRepository) GetByBrowser(ctx context.Context, browser string, limit int) ([]model.BrowserVisit, error) {
	query := r.db.WithContext(ctx).Where("browser = ?", browser).Order("timestamp DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var visits []model.BrowserVisit
	if err := query.Find(&visits).Error; err != nil {
		return nil, fmt.Errorf("查询访问记录失败: %w", err)
	}

	return visits, nil
}
