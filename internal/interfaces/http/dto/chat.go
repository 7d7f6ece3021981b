package dto

import (
	"newsrag-api/internal/domain/entity"
)

// ChatRequest 问答请求
type ChatRequest struct {
	Query     string `json:"query" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
	TopK      int    `json:"top_k,omitempty" binding:"omitempty,min=1,max=20"`
}

// ChatResponse 问答响应
type ChatResponse struct {
	SessionID string             `json:"session_id"`
	Answer    string             `json:"answer"`
	Sources   []entity.SourceRef `json:"sources"`
}

// SessionResponse 会话响应
type SessionResponse struct {
	ID        string               `json:"id"`
	Messages  []entity.ChatMessage `json:"messages"`
	CreatedAt string               `json:"created_at"`
	UpdatedAt string               `json:"updated_at"`
}

// StatsResponse 索引统计响应
type StatsResponse struct {
	Count      int64  `json:"count"`
	Dimension  int    `json:"dimension"`
	MetricType string `json:"metric_type"`
	Status     string `json:"status"`
}
