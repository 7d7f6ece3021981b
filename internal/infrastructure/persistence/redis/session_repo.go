package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsrag-api/internal/domain/entity"
	"newsrag-api/internal/domain/repository"
	"newsrag-api/pkg/errors"
	"newsrag-api/pkg/metrics"
)

const sessionKeyPrefix = "session:"

// SessionRepository 基于 Redis 的会话存储，实现 repository.SessionRepository。
// 会话整体以 JSON 存储，每次读写刷新 TTL。
type SessionRepository struct {
	client *Client
	ttl    time.Duration
}

// NewSessionRepository 创建会话存储
func NewSessionRepository(client *Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{
		client: client,
		ttl:    ttl,
	}
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

// Create 创建新会话
func (r *SessionRepository) Create(ctx context.Context, session *entity.ChatSession) error {
	ctx, span := tracer.Start(ctx, "session.Create",
		trace.WithAttributes(attribute.String("session_id", session.ID)))
	defer span.End()

	if err := r.write(ctx, session); err != nil {
		span.RecordError(err)
		return err
	}
	metrics.ActiveSessions.Inc()
	return nil
}

// GetByID 按 id 读取会话；不存在或已过期返回 CodeSessionNotFound
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*entity.ChatSession, error) {
	ctx, span := tracer.Start(ctx, "session.GetByID",
		trace.WithAttributes(attribute.String("session_id", id)))
	defer span.End()

	raw, err := r.client.Get(ctx, sessionKey(id))
	if err != nil {
		if IsNil(err) {
			return nil, errors.New(errors.CodeSessionNotFound, "session not found")
		}
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to load session")
	}

	var session entity.ChatSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, errors.CodeCacheError, "failed to decode session")
	}
	return &session, nil
}

// Save 保存会话并刷新 TTL
func (r *SessionRepository) Save(ctx context.Context, session *entity.ChatSession) error {
	ctx, span := tracer.Start(ctx, "session.Save",
		trace.WithAttributes(
			attribute.String("session_id", session.ID),
			attribute.Int("message_count", len(session.Messages)),
		))
	defer span.End()

	if err := r.write(ctx, session); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// Delete 删除会话
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "session.Delete",
		trace.WithAttributes(attribute.String("session_id", id)))
	defer span.End()

	n, err := r.client.Del(ctx, sessionKey(id))
	if err != nil {
		span.RecordError(err)
		return errors.Wrap(err, errors.CodeCacheError, "failed to delete session")
	}
	if n == 0 {
		return errors.New(errors.CodeSessionNotFound, "session not found")
	}
	metrics.ActiveSessions.Dec()
	return nil
}

func (r *SessionRepository) write(ctx context.Context, session *entity.ChatSession) error {
	bytes, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, errors.CodeCacheError, "failed to encode session")
	}
	if err := r.client.Set(ctx, sessionKey(session.ID), bytes, r.ttl); err != nil {
		return errors.Wrap(err, errors.CodeCacheError, fmt.Sprintf("failed to store session %s", session.ID))
	}
	return nil
}
