// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// CandidateDocument 对应于数据库中的 'candidate_documents' 表。
// 它是关键词/模糊打分的候选内容记录，打分过程从不修改它。
type CandidateDocument struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Slug      string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Page      string    `gorm:"type:varchar(255);index" json:"page"`
	Title     string    `gorm:"type:varchar(255)" json:"title"`
	Content   string    `gorm:"type:text" json:"content"`
	Tags      string    `gorm:"type:varchar(500)" json:"tags"` // 逗号分隔
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (CandidateDocument) TableName() string {
	return "candidate_documents"
}

// 向量索引中条目的类型。
const (
	EntryTypePattern      = "pattern"
	EntryTypeResponse     = "response"
	EntryTypeFAQ          = "faq"
	EntryTypeAnnouncement = "announcement"
)

// EsEntry 代表存储在 Elasticsearch 向量索引中的一个条目。
// 模式、应答、FAQ 与公告共用同一索引，通过 entry_type 区分。
type EsEntry struct {
	EntryID      string    `json:"entry_id"`
	Tag          string    `json:"tag"`
	EntryType    string    `json:"entry_type"`
	Text         string    `json:"text"`
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// SearchHit 是向量检索返回给调用方的单条命中。
type SearchHit struct {
	ID        string  `json:"id"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
	Tag       string  `json:"tag"`
	EntryType string  `json:"entryType"`
}
