package model

// SchemaMeta 记录数据库 schema 版本，作为升级门闸
type SchemaMeta struct {
	ID            int64 `gorm:"primaryKey" json:"id"`
	SchemaVersion int   `json:"schema_version"`
}

// TableName 指定表名
func (SchemaMeta) TableName() string {
	return "schema_meta"
}
