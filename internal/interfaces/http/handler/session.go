package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"newsrag-api/internal/domain/entity"
	"newsrag-api/internal/domain/repository"
	"newsrag-api/internal/interfaces/http/dto"
)

// SessionHandler 会话处理器
type SessionHandler struct {
	sessions repository.SessionRepository
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(sessions repository.SessionRepository) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Create 创建会话
// @Summary 创建会话
// @Tags Session
// @Produce json
// @Success 201 {object} dto.Response[dto.SessionResponse]
// @Router /v1/sessions [post]
func (h *SessionHandler) Create(c *gin.Context) {
	session := entity.NewChatSession()
	if err := h.sessions.Create(c.Request.Context(), session); err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Created(c, toSessionResponse(session))
}

// Get 获取会话及消息历史
// @Summary 获取会话
// @Tags Session
// @Produce json
// @Param id path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Router /v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		dto.BadRequest(c, "session id is required")
		return
	}

	session, err := h.sessions.GetByID(c.Request.Context(), id)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, toSessionResponse(session))
}

// Delete 删除会话
// @Summary 删除会话
// @Tags Session
// @Param id path string true "会话 ID"
// @Success 204
// @Router /v1/sessions/{id} [delete]
func (h *SessionHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		dto.BadRequest(c, "session id is required")
		return
	}

	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		dto.AppError(c, err)
		return
	}
	dto.NoContent(c)
}

func toSessionResponse(session *entity.ChatSession) dto.SessionResponse {
	return dto.SessionResponse{
		ID:        session.ID,
		Messages:  session.Messages,
		CreatedAt: session.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: session.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
