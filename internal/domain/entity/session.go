// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Role 消息角色
type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// ChatMessage 会话中的一条消息
type ChatMessage struct {
	Role      Role        `json:"role"`
	Content   string      `json:"content"`
	Sources   []SourceRef `json:"sources,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ChatSession 短生命周期会话，按 session id 存于 KV 存储
type ChatSession struct {
	ID        string        `json:"id"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewChatSession 创建新会话
func NewChatSession() *ChatSession {
	now := time.Now()
	return &ChatSession{
		ID:        uuid.NewString(),
		Messages:  []ChatMessage{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append 追加一条消息并更新时间戳
func (s *ChatSession) Append(msg ChatMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.Timestamp
}

// TrimTo 仅保留最近 max 条消息，防止长会话的存储值无限增长；max<=0 不裁剪
func (s *ChatSession) TrimTo(max int) {
	if max > 0 && len(s.Messages) > max {
		s.Messages = s.Messages[len(s.Messages)-max:]
	}
}
