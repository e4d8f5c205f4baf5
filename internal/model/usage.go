package model

// AppUsage 每日应用使用时长，(date, application) 唯一
// duration_seconds 只增不减，等于所有已接受增量之和
type AppUsage struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Date            string `gorm:"size:10;uniqueIndex:idx_usage_date_app" json:"date"` // YYYY-MM-DD
	Application     string `gorm:"size:255;uniqueIndex:idx_usage_date_app" json:"application"`
	DurationSeconds int64  `gorm:"default:0" json:"duration_seconds"`
}

// TableName 指定表名
func (AppUsage) TableName() string {
	return "app_usage"
}
