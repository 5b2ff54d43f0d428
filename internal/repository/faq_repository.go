// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"campus-smart-go/internal/model"

	"gorm.io/gorm"
)

// FAQRepository 接口定义了 FAQ 的数据操作方法。
type FAQRepository interface {
	Create(faq *model.FAQ) error
	FindByID(id uint) (*model.FAQ, error)
	FindActive() ([]model.FAQ, error)
	Update(faq *model.FAQ) error
	Delete(id uint) error
}

type faqRepository struct {
	db *gorm.DB
}

// NewFAQRepository 创建一个新的 FAQRepository 实例。
func NewFAQRepository(db *gorm.DB) FAQRepository {
	return &faqRepository{db: db}
}

// Create 在数据库中插入一条新的 FAQ 记录。
func (r *faqRepository) Create(faq *model.FAQ) error {
	return r.db.Create(faq).Error
}

// FindByID 根据 ID 查找一条 FAQ。
func (r *faqRepository) FindByID(id uint) (*model.FAQ, error) {
	var faq model.FAQ
	err := r.db.First(&faq, id).Error
	if err != nil {
		return nil, err
	}
	return &faq, nil
}

// FindActive 检索所有启用中的 FAQ 记录。
func (r *faqRepository) FindActive() ([]model.FAQ, error) {
	var faqs []model.FAQ
	err := r.db.Where("active = ?", true).Find(&faqs).Error
	return faqs, err
}

// Update 更新数据库中一条已存在的 FAQ 记录。
func (r *faqRepository) Update(faq *model.FAQ) error {
	return r.db.Save(faq).Error
}

// Delete 根据 ID 删除一条 FAQ 记录。
func (r *faqRepository) Delete(id uint) error {
	return r.db.Delete(&model.FAQ{}, id).Error
}
