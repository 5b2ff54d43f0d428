// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"context"

	"campus-smart-go/internal/model"
	"campus-smart-go/pkg/log"

	"gorm.io/gorm"
)

// DocumentRepository 接口定义了候选文档语料的数据操作方法。
// Query 按关键词做子串过滤；过滤检索失败时退化为全量扫描而非报错。
type DocumentRepository interface {
	Query(ctx context.Context, terms []string) ([]model.CandidateDocument, error)
	FindAll() ([]model.CandidateDocument, error)
	FindBySlug(slug string) (*model.CandidateDocument, error)
	BatchCreate(documents []*model.CandidateDocument) error
	DeleteByPage(page string) error
}

type documentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository 创建一个新的 DocumentRepository 实例。
func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepository{db: db}
}

// Query 按提取出的非停用词做 LIKE 过滤，任一词命中即保留。
// terms 为空或过滤查询失败时退化为全量扫描。
func (r *documentRepository) Query(ctx context.Context, terms []string) ([]model.CandidateDocument, error) {
	if len(terms) == 0 {
		return r.FindAll()
	}

	db := r.db.WithContext(ctx).Model(&model.CandidateDocument{})
	query := db
	for i, term := range terms {
		pattern := "%" + term + "%"
		cond := r.db.Where("content LIKE ?", pattern).
			Or("title LIKE ?", pattern).
			Or("tags LIKE ?", pattern)
		if i == 0 {
			query = query.Where(cond)
		} else {
			query = query.Or(cond)
		}
	}

	var documents []model.CandidateDocument
	if err := query.Find(&documents).Error; err != nil {
		log.Warnf("[DocumentRepository] 过滤检索失败，退化为全量扫描: %v", err)
		return r.FindAll()
	}
	return documents, nil
}

// FindAll 检索全部候选文档。
func (r *documentRepository) FindAll() ([]model.CandidateDocument, error) {
	var documents []model.CandidateDocument
	err := r.db.Find(&documents).Error
	return documents, err
}

// FindBySlug 根据 slug 查找一条候选文档。
func (r *documentRepository) FindBySlug(slug string) (*model.CandidateDocument, error) {
	var document model.CandidateDocument
	err := r.db.Where("slug = ?", slug).First(&document).Error
	if err != nil {
		return nil, err
	}
	return &document, nil
}

// BatchCreate 批量插入候选文档记录。
func (r *documentRepository) BatchCreate(documents []*model.CandidateDocument) error {
	if len(documents) == 0 {
		return nil
	}
	return r.db.Create(documents).Error
}

// DeleteByPage 删除某个页面分组下的全部候选文档（摄取前的幂等清理）。
func (r *documentRepository) DeleteByPage(page string) error {
	return r.db.Where("page = ?", page).Delete(&model.CandidateDocument{}).Error
}
