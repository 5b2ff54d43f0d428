// Package model 包含了应用的数据模型定义。
package model

import "time"

// 消息发送方的取值。
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatMessage 代表存储在 Redis 中的单条对话消息。
// 消息一经写入即不可变，历史记录只追加。
type ChatMessage struct {
	Sender    string    `json:"sender"` // "user" 或 "bot"
	Text      string    `json:"text"`
	Office    string    `json:"office,omitempty"` // 消息归属的办公室标签，可为空
	Timestamp time.Time `json:"timestamp"`
}

// UserConversation 是管理端查看全量对话时的聚合结构。
type UserConversation struct {
	UserID   uint          `json:"userId"`
	Username string        `json:"username"`
	Messages []ChatMessage `json:"messages"`
}
