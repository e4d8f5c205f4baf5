package model

// BrowserVisit 浏览器访问记录，由历史记录采集器产生
// (url, timestamp) 去重，避免重复导入同一条历史
type BrowserVisit struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp string `gorm:"size:35;index:idx_visit_url_ts" json:"timestamp"` // 访问时间（ISO-8601）
	URL       string `gorm:"type:text;index:idx_visit_url_ts,length:255" json:"url"`
	Title     string `gorm:"type:text" json:"title"`
	Browser   string `gorm:"size:50;index" json:"browser"` // chrome / edge / ...
}

// TableName 指定表名
func (BrowserVisit) TableName() string {
	return "browser_visits"
}
