// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// FAQ 对应于数据库中的 'faqs' 表。
type FAQ struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Question  string    `gorm:"type:text;not null" json:"question"`
	Answer    string    `gorm:"type:text;not null" json:"answer"`
	Office    string    `gorm:"type:varchar(100);index" json:"office"`
	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FAQ) TableName() string {
	return "faqs"
}
