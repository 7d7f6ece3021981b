// Package handler 提供 HTTP 请求处理器
package handler

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/domain/entity"
	"newsrag-api/internal/domain/repository"
	"newsrag-api/internal/interfaces/http/dto"
	"newsrag-api/pkg/logger"
)

// ChatHandler 问答处理器
type ChatHandler struct {
	pipeline    *rag.Pipeline
	sessions    repository.SessionRepository
	maxMessages int
}

// NewChatHandler 创建问答处理器；maxMessages 为会话保留的消息条数上限（<=0 不限）
func NewChatHandler(pipeline *rag.Pipeline, sessions repository.SessionRepository, maxMessages int) *ChatHandler {
	return &ChatHandler{
		pipeline:    pipeline,
		sessions:    sessions,
		maxMessages: maxMessages,
	}
}

// Chat 问答接口
// @Summary 新闻问答
// @Description 基于已索引新闻回答问题；不带 session_id 时自动创建会话
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "问答请求"
// @Success 200 {object} dto.Response[dto.ChatResponse]
// @Router /v1/chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	// 纯空白查询先拒绝，避免为之新建会话
	if strings.TrimSpace(req.Query) == "" {
		dto.BadRequest(c, "query must not be empty")
		return
	}

	// 会话：带 id 续聊，不带则新建
	var session *entity.ChatSession
	if req.SessionID != "" {
		found, err := h.sessions.GetByID(c.Request.Context(), req.SessionID)
		if err != nil {
			dto.AppError(c, err)
			return
		}
		session = found
	} else {
		session = entity.NewChatSession()
		if err := h.sessions.Create(c.Request.Context(), session); err != nil {
			dto.AppError(c, err)
			return
		}
	}

	ctx := logger.WithContext(c.Request.Context(), logger.SessionIDKey, session.ID)

	answer, err := h.pipeline.Answer(ctx, req.Query, req.TopK)
	if err != nil {
		if stderrors.Is(err, rag.ErrEmptyInput) {
			dto.BadRequest(c, "query must not be empty")
			return
		}
		dto.AppError(c, err)
		return
	}

	now := time.Now()
	session.Append(entity.ChatMessage{
		Role:      entity.RoleUser,
		Content:   req.Query,
		Timestamp: now,
	})
	session.Append(entity.ChatMessage{
		Role:      entity.RoleBot,
		Content:   answer.Text,
		Sources:   answer.Sources,
		Timestamp: now,
	})
	session.TrimTo(h.maxMessages)

	// 会话保存失败不影响已生成的回答
	if err := h.sessions.Save(ctx, session); err != nil {
		logger.Warn(ctx, "failed to save session", "error", err)
	}

	dto.Success(c, dto.ChatResponse{
		SessionID: session.ID,
		Answer:    answer.Text,
		Sources:   answer.Sources,
	})
}
