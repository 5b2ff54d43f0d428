// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"campus-smart-go/internal/model"

	"gorm.io/gorm"
)

// FeedbackRepository 接口定义了用户反馈的数据操作方法。
type FeedbackRepository interface {
	Create(feedback *model.Feedback) error
	FindWithPagination(offset, limit int) ([]model.Feedback, int64, error)
}

type feedbackRepository struct {
	db *gorm.DB
}

// NewFeedbackRepository 创建一个新的 FeedbackRepository 实例。
func NewFeedbackRepository(db *gorm.DB) FeedbackRepository {
	return &feedbackRepository{db: db}
}

// Create 在数据库中插入一条新的反馈记录。
func (r *feedbackRepository) Create(feedback *model.Feedback) error {
	return r.db.Create(feedback).Error
}

// FindWithPagination 分页检索反馈记录，按创建时间倒序。
func (r *feedbackRepository) FindWithPagination(offset, limit int) ([]model.Feedback, int64, error) {
	var feedbacks []model.Feedback
	var total int64

	db := r.db.Model(&model.Feedback{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&feedbacks).Error
	if err != nil {
		return nil, 0, err
	}

	return feedbacks, total, nil
}
