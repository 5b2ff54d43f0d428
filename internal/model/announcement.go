// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// 公告优先级的取值。
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// Announcement 对应于数据库中的 'announcements' 表。
// ID 单调递增；Active=false 表示软删除，不出现在默认列表中。
type Announcement struct {
	ID        uint      `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title     string    `gorm:"type:varchar(255);not null" json:"title"`
	Date      string    `gorm:"type:varchar(20);not null" json:"date"` // 格式 YYYY-MM-DD
	Priority  string    `gorm:"type:varchar(10);not null;default:medium" json:"priority"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Category  string    `gorm:"type:varchar(100)" json:"category"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Announcement) TableName() string {
	return "announcements"
}

// PriorityRank 将优先级映射为排序用的序号，high=0, medium=1, low=2。
func (a Announcement) PriorityRank() int {
	switch a.Priority {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	default:
		return 2
	}
}
