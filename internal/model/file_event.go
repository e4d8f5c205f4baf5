package model

// 文件事件类型
const (
	FileCreated  = "created"
	FileDeleted  = "deleted"
	FileModified = "modified"
	FileRenamed  = "renamed"
)

// FileEvent 文件系统事件，由文件监控采集器产生
type FileEvent struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Timestamp string `gorm:"size:35;index" json:"timestamp"` // ISO-8601
	FilePath  string `gorm:"type:text" json:"file_path"`
	EventType string `gorm:"size:20;index" json:"event_type"` // created / deleted / modified / renamed
}

// TableName 指定表名
func (FileEvent) TableName() string {
	return "file_events"
}
