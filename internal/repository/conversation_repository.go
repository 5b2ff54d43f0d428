// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"campus-smart-go/internal/model"
	"campus-smart-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// 追加写入的重试策略：有限次数 + 固定短退避。
const (
	appendMaxAttempts   = 3
	appendRetryInterval = 200 * time.Millisecond
	historyLimit        = 50
)

// ConversationRepository 定义了对话历史记录的操作接口。
// AppendMessage 是应答路径唯一依赖的写入口：它内部做有限重试，
// 最终失败只记日志并返回 false，绝不向调用方抛错。
type ConversationRepository interface {
	GetOrCreateConversationID(ctx context.Context, userID uint) (string, error)
	GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	AppendMessage(ctx context.Context, userID uint, message model.ChatMessage) bool
	GetAllUserConversationMappings(ctx context.Context) (map[uint]string, error)
}

type redisConversationRepository struct {
	redisClient *redis.Client
}

// NewConversationRepository 创建一个新的 ConversationRepository 实例。
func NewConversationRepository(redisClient *redis.Client) ConversationRepository {
	return &redisConversationRepository{redisClient: redisClient}
}

// GetOrCreateConversationID 获取或创建一个新的对话ID。
func (r *redisConversationRepository) GetOrCreateConversationID(ctx context.Context, userID uint) (string, error) {
	userKey := fmt.Sprintf("user:%d:current_conversation", userID)
	convID, err := r.redisClient.Get(ctx, userKey).Result()
	if err == redis.Nil {
		convID = fmt.Sprintf("%d-%d", time.Now().UnixNano(), userID)
		if err := r.redisClient.Set(ctx, userKey, convID, 7*24*time.Hour).Err(); err != nil {
			return "", fmt.Errorf("failed to set conversation id: %w", err)
		}
		return convID, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get conversation id: %w", err)
	}
	return convID, nil
}

// GetConversationHistory 从 Redis 获取对话历史记录。
func (r *redisConversationRepository) GetConversationHistory(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	key := fmt.Sprintf("conversation:%s", conversationID)
	jsonData, err := r.redisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		return []model.ChatMessage{}, nil // No history yet
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation history: %w", err)
	}
	var messages []model.ChatMessage
	err = json.Unmarshal([]byte(jsonData), &messages)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation history: %w", err)
	}
	return messages, nil
}

// AppendMessage 将一条消息追加到用户的对话历史。
// 瞬时连接故障时按固定间隔重试至多 3 次；彻底失败只记日志并返回 false，
// 不能因为写历史失败而阻断对用户的应答。
func (r *redisConversationRepository) AppendMessage(ctx context.Context, userID uint, message model.ChatMessage) bool {
	var lastErr error
	for attempt := 1; attempt <= appendMaxAttempts; attempt++ {
		if err := r.appendOnce(ctx, userID, message); err != nil {
			lastErr = err
			log.Warnf("[ConversationRepository] 追加消息失败 (attempt %d/%d), userID: %d, error: %v",
				attempt, appendMaxAttempts, userID, err)
			time.Sleep(appendRetryInterval)
			continue
		}
		return true
	}
	log.Errorf("[ConversationRepository] 追加消息最终失败, userID: %d, error: %v", userID, lastErr)
	return false
}

func (r *redisConversationRepository) appendOnce(ctx context.Context, userID uint, message model.ChatMessage) error {
	conversationID, err := r.GetOrCreateConversationID(ctx, userID)
	if err != nil {
		return err
	}

	history, err := r.GetConversationHistory(ctx, conversationID)
	if err != nil {
		return err
	}

	history = append(history, message)
	// 只保留最近 50 条
	if len(history) > historyLimit {
		history = history[len(history)-historyLimit:]
	}

	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation history: %w", err)
	}

	key := fmt.Sprintf("conversation:%s", conversationID)
	if err := r.redisClient.Set(ctx, key, jsonData, 7*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set conversation history: %w", err)
	}
	return nil
}

// GetAllUserConversationMappings 扫描 user:*:current_conversation 返回 map[userID]conversationID。
func (r *redisConversationRepository) GetAllUserConversationMappings(ctx context.Context) (map[uint]string, error) {
	keys, err := r.redisClient.Keys(ctx, "user:*:current_conversation").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to scan user conversation keys: %w", err)
	}
	result := make(map[uint]string)
	for _, k := range keys {
		var uid uint
		_, scanErr := fmt.Sscanf(k, "user:%d:current_conversation", &uid)
		if scanErr != nil {
			continue
		}
		convID, getErr := r.redisClient.Get(ctx, k).Result()
		if getErr != nil {
			continue
		}
		result[uid] = convID
	}
	return result, nil
}
