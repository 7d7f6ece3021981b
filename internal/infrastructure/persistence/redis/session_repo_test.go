package redis

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsrag-api/internal/config"
	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/errors"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	c, err := NewClient(&config.RedisConfig{Host: s.Host(), Port: port})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, s
}

func TestSessionRepositoryRoundTrip(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	session := entity.NewChatSession()
	session.Append(entity.ChatMessage{Role: entity.RoleUser, Content: "hello"})
	require.NoError(t, repo.Create(ctx, session))

	loaded, err := repo.GetByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)
	require.Len(t, loaded.Messages, 1)
	assert.Equal(t, "hello", loaded.Messages[0].Content)
}

func TestSessionRepositoryGetUnknown(t *testing.T) {
	client, _ := newTestClient(t)
	repo := NewSessionRepository(client, time.Hour)

	_, err := repo.GetByID(context.Background(), "no-such-session")
	appErr := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeSessionNotFound, appErr.Code)
}

func TestSessionRepositoryDelete(t *testing.T) {
	client, s := newTestClient(t)
	repo := NewSessionRepository(client, time.Hour)
	ctx := context.Background()

	session := entity.NewChatSession()
	require.NoError(t, repo.Create(ctx, session))
	require.True(t, s.Exists(sessionKey(session.ID)))

	require.NoError(t, repo.Delete(ctx, session.ID))
	assert.False(t, s.Exists(sessionKey(session.ID)))

	// 再次删除：键已不存在，按未找到处理
	err := repo.Delete(ctx, session.ID)
	appErr := errors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, errors.CodeSessionNotFound, appErr.Code)
}

func TestSessionRepositorySetsTTL(t *testing.T) {
	client, s := newTestClient(t)
	repo := NewSessionRepository(client, time.Hour)

	session := entity.NewChatSession()
	require.NoError(t, repo.Create(context.Background(), session))
	assert.Equal(t, time.Hour, s.TTL(sessionKey(session.ID)))
}
