// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"

	"campus-smart-go/internal/model"
	"campus-smart-go/internal/repository"
	"campus-smart-go/pkg/log"
)

// UserListResponse 定义了用户列表 API 的响应结构。
type UserListResponse struct {
	Content       []UserDetailResponse `json:"content"`
	TotalElements int64                `json:"totalElements"`
	TotalPages    int                  `json:"totalPages"`
	Size          int                  `json:"size"`
	Number        int                  `json:"number"`
}

// UserDetailResponse 定义了用户列表项的详细结构。
type UserDetailResponse struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	Role      string          `json:"role"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// AdminService 接口定义了所有管理员相关的业务操作。
type AdminService interface {
	ListUsers(page, size int) (*UserListResponse, error)
	GetAllConversations(ctx context.Context) ([]model.UserConversation, error)
}

// adminService 是 AdminService 接口的实现。
type adminService struct {
	userRepo         repository.UserRepository
	conversationRepo repository.ConversationRepository
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, conversationRepo repository.ConversationRepository) AdminService {
	return &adminService{
		userRepo:         userRepo,
		conversationRepo: conversationRepo,
	}
}

// ListUsers 分页返回用户列表。
func (s *adminService) ListUsers(page, size int) (*UserListResponse, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}

	users, total, err := s.userRepo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, err
	}

	content := make([]UserDetailResponse, 0, len(users))
	for _, u := range users {
		content = append(content, UserDetailResponse{
			UserID:    u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: model.LocalTime(u.CreatedAt),
		})
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return &UserListResponse{
		Content:       content,
		TotalElements: total,
		TotalPages:    totalPages,
		Size:          size,
		Number:        page,
	}, nil
}

// GetAllConversations 聚合所有用户的当前对话历史，供管理端审阅。
// 单个用户的历史读取失败时跳过该用户，不中断整体结果。
func (s *adminService) GetAllConversations(ctx context.Context) ([]model.UserConversation, error) {
	mappings, err := s.conversationRepo.GetAllUserConversationMappings(ctx)
	if err != nil {
		return nil, err
	}

	conversations := make([]model.UserConversation, 0, len(mappings))
	for userID, conversationID := range mappings {
		messages, err := s.conversationRepo.GetConversationHistory(ctx, conversationID)
		if err != nil {
			log.Warnf("[AdminService] 读取用户对话失败, userID: %d, error: %v", userID, err)
			continue
		}

		username := ""
		if user, err := s.userRepo.FindByID(userID); err == nil {
			username = user.Username
		}

		conversations = append(conversations, model.UserConversation{
			UserID:   userID,
			Username: username,
			Messages: messages,
		})
	}
	return conversations, nil
}
