// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"campus-smart-go/internal/model"

	"gorm.io/gorm"
)

// KnowledgeFileRepository 接口定义了知识文件记录的数据操作方法。
type KnowledgeFileRepository interface {
	Create(file *model.KnowledgeFile) error
	FindByMD5(fileMD5 string) (*model.KnowledgeFile, error)
	FindAll() ([]model.KnowledgeFile, error)
	UpdateStatus(fileMD5, status string) error
	Delete(fileMD5 string) error
}

type knowledgeFileRepository struct {
	db *gorm.DB
}

// NewKnowledgeFileRepository 创建一个新的 KnowledgeFileRepository 实例。
func NewKnowledgeFileRepository(db *gorm.DB) KnowledgeFileRepository {
	return &knowledgeFileRepository{db: db}
}

// Create 在数据库中插入一条新的知识文件记录。
func (r *knowledgeFileRepository) Create(file *model.KnowledgeFile) error {
	return r.db.Create(file).Error
}

// FindByMD5 根据文件 MD5 查找一条知识文件记录。
func (r *knowledgeFileRepository) FindByMD5(fileMD5 string) (*model.KnowledgeFile, error) {
	var file model.KnowledgeFile
	err := r.db.Where("file_md5 = ?", fileMD5).First(&file).Error
	if err != nil {
		return nil, err
	}
	return &file, nil
}

// FindAll 检索所有知识文件记录。
func (r *knowledgeFileRepository) FindAll() ([]model.KnowledgeFile, error) {
	var files []model.KnowledgeFile
	err := r.db.Order("created_at DESC").Find(&files).Error
	return files, err
}

// UpdateStatus 更新指定文件的处理状态。
func (r *knowledgeFileRepository) UpdateStatus(fileMD5, status string) error {
	return r.db.Model(&model.KnowledgeFile{}).Where("file_md5 = ?", fileMD5).
		Update("status", status).Error
}

// Delete 根据文件 MD5 删除一条知识文件记录。
func (r *knowledgeFileRepository) Delete(fileMD5 string) error {
	return r.db.Where("file_md5 = ?", fileMD5).Delete(&model.KnowledgeFile{}).Error
}
