// Package service 包含了应用的业务逻辑层。
package service

import (
	"errors"
	"fmt"

	"campus-smart-go/internal/model"
	"campus-smart-go/internal/repository"
)

// FeedbackService 接口定义了用户反馈的业务操作。
type FeedbackService interface {
	Submit(userID uint, message string, rating int, comment string) (*model.Feedback, error)
	List(page, size int) ([]model.Feedback, int64, error)
}

type feedbackService struct {
	feedbackRepo repository.FeedbackRepository
}

// NewFeedbackService 创建一个新的 FeedbackService 实例。
func NewFeedbackService(feedbackRepo repository.FeedbackRepository) FeedbackService {
	return &feedbackService{feedbackRepo: feedbackRepo}
}

// Submit 提交一条对机器人应答的评价。
func (s *feedbackService) Submit(userID uint, message string, rating int, comment string) (*model.Feedback, error) {
	if rating < 1 || rating > 5 {
		return nil, errors.New("rating must be between 1 and 5")
	}

	feedback := &model.Feedback{
		UserID:  userID,
		Message: message,
		Rating:  rating,
		Comment: comment,
	}
	if err := s.feedbackRepo.Create(feedback); err != nil {
		return nil, fmt.Errorf("failed to create feedback: %w", err)
	}
	return feedback, nil
}

// List 分页返回反馈记录，供管理端查看。
func (s *feedbackService) List(page, size int) ([]model.Feedback, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	return s.feedbackRepo.FindWithPagination((page-1)*size, size)
}
