// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 知识文件处理状态。
const (
	FileStatusPending    = "PENDING"
	FileStatusProcessing = "PROCESSING"
	FileStatusCompleted  = "COMPLETED"
	FileStatusFailed     = "FAILED"
)

// KnowledgeFile 对应于数据库中的 'knowledge_files' 表。
// 它记录管理员上传的办公室资料（手册、通知等）及其摄取状态。
type KnowledgeFile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FileMD5    string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"fileMd5"`
	FileName   string    `gorm:"type:varchar(255);not null" json:"fileName"`
	FileSize   int64     `gorm:"not null" json:"fileSize"`
	Office     string    `gorm:"type:varchar(100);index" json:"office"`
	Status     string    `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`
	UploadedBy uint      `gorm:"not null" json:"uploadedBy"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (KnowledgeFile) TableName() string {
	return "knowledge_files"
}
