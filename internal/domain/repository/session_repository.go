// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"newsrag-api/internal/domain/entity"
)

// SessionRepository 会话存储接口
// 实现位于基础设施层（Redis，带 TTL）。
type SessionRepository interface {
	Create(ctx context.Context, session *entity.ChatSession) error
	GetByID(ctx context.Context, id string) (*entity.ChatSession, error)
	Save(ctx context.Context, session *entity.ChatSession) error
	Delete(ctx context.Context, id string) error
}
