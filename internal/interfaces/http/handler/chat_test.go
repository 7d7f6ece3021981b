package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/errors"
)

// stubBackend 固定维度后端
type stubBackend struct{}

func (stubBackend) Name() string   { return "stub" }
func (stubBackend) Dimension() int { return 4 }
func (stubBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0, 0}
	}
	return out, nil
}

// stubIndex 无命中的空索引
type stubIndex struct{}

func (stubIndex) EnsureCollection(context.Context) error { return nil }
func (stubIndex) Upsert(context.Context, []entity.IndexedPoint) (int, error) {
	return 0, nil
}
func (stubIndex) Search(context.Context, []float32, int, float64) ([]entity.RetrievalResult, error) {
	return nil, nil
}
func (stubIndex) Stats(context.Context) (*entity.IndexStats, error) {
	return &entity.IndexStats{Status: "ready"}, nil
}
func (stubIndex) Clear(context.Context) error      { return nil }
func (stubIndex) IsReachable(context.Context) bool { return true }

// memSessionRepo 内存会话存储
type memSessionRepo struct {
	sessions map[string]*entity.ChatSession
	created  int
	saved    int
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: map[string]*entity.ChatSession{}}
}

func (r *memSessionRepo) Create(_ context.Context, s *entity.ChatSession) error {
	r.created++
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) GetByID(_ context.Context, id string) (*entity.ChatSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.New(errors.CodeSessionNotFound, "session not found")
	}
	return s, nil
}

func (r *memSessionRepo) Save(_ context.Context, s *entity.ChatSession) error {
	r.saved++
	r.sessions[s.ID] = s
	return nil
}

func (r *memSessionRepo) Delete(_ context.Context, id string) error {
	delete(r.sessions, id)
	return nil
}

func newChatRouter(t *testing.T, repo *memSessionRepo, maxMessages int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	embedder := rag.NewEmbedder(stubBackend{}, 0, time.Millisecond)
	pipeline := rag.NewPipeline(embedder, stubIndex{}, rag.NewExtractor(0, 0), rag.NewAnswerGenerator(nil), 5, 0.3)

	r := gin.New()
	r.POST("/v1/chat", NewChatHandler(pipeline, repo, maxMessages).Chat)
	return r
}

func postChat(t *testing.T, router *gin.Engine, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChatRejectsWhitespaceQueryWithoutCreatingSession(t *testing.T) {
	repo := newMemSessionRepo()
	router := newChatRouter(t, repo, 100)

	rec := postChat(t, router, map[string]interface{}{"query": "   \t  "})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, repo.created, "rejected query must not leave an orphaned session")
	assert.Empty(t, repo.sessions)
}

func TestChatCreatesSessionWhenMissing(t *testing.T) {
	repo := newMemSessionRepo()
	router := newChatRouter(t, repo, 100)

	rec := postChat(t, router, map[string]interface{}{"query": "what happened today"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.created)
	assert.Equal(t, 1, repo.saved)
	require.Len(t, repo.sessions, 1)
	for _, s := range repo.sessions {
		assert.Len(t, s.Messages, 2, "user question and bot answer are recorded")
	}
}

func TestChatCapsSessionHistory(t *testing.T) {
	repo := newMemSessionRepo()
	router := newChatRouter(t, repo, 4)

	session := entity.NewChatSession()
	for i := 0; i < 4; i++ {
		session.Append(entity.ChatMessage{Role: entity.RoleUser, Content: fmt.Sprintf("old-%d", i)})
	}
	repo.sessions[session.ID] = session

	rec := postChat(t, router, map[string]interface{}{
		"query":      "what happened today",
		"session_id": session.ID,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	saved := repo.sessions[session.ID]
	require.Len(t, saved.Messages, 4, "history is capped at the configured maximum")
	assert.Equal(t, "old-2", saved.Messages[0].Content)
	assert.Equal(t, "what happened today", saved.Messages[2].Content)
}

func TestChatUnknownSessionID(t *testing.T) {
	repo := newMemSessionRepo()
	router := newChatRouter(t, repo, 100)

	rec := postChat(t, router, map[string]interface{}{
		"query":      "what happened today",
		"session_id": "missing",
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, repo.created)
}
