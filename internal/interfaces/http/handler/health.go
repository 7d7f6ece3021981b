package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/infrastructure/persistence/milvus"
	"newsrag-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	pipeline *rag.Pipeline
	redis    *redis.Client
	milvus   *milvus.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pipeline *rag.Pipeline, redisClient *redis.Client, milvusClient *milvus.Client) *HealthHandler {
	return &HealthHandler{
		pipeline: pipeline,
		redis:    redisClient,
		milvus:   milvusClient,
	}
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// Health 健康检查接口
// @Summary 健康检查
// @Description 返回管线整体健康状态，永不报错
// @Tags System
// @Produce json
// @Success 200 {object} entity.Health
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	health := h.pipeline.HealthCheck(c.Request.Context())
	c.JSON(http.StatusOK, health)
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description 检查服务是否可以接收流量
// @Tags System
// @Produce json
// @Success 200 {object} readinessResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]*readinessCheck{
		"redis":  {Status: "unknown"},
		"milvus": {Status: "unknown"},
	}

	ready := true

	// Redis（必需，承载会话）
	if h == nil || h.redis == nil {
		checks["redis"].Status = "missing"
		checks["redis"].Error = "redis client not configured"
		ready = false
	} else {
		start := time.Now()
		err := h.redis.HealthCheck(ctx)
		checks["redis"].LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			checks["redis"].Status = "error"
			checks["redis"].Error = err.Error()
			ready = false
		} else {
			checks["redis"].Status = "ok"
		}
	}

	// Milvus（可选：不可达时问答退化为无上下文，不影响就绪态）
	if h == nil || h.milvus == nil {
		checks["milvus"].Status = "missing"
		checks["milvus"].Error = "milvus client not configured"
	} else {
		start := time.Now()
		err := h.milvus.HealthCheck(ctx)
		checks["milvus"].LatencyMs = time.Since(start).Milliseconds()
		if err != nil {
			checks["milvus"].Status = "degraded"
			checks["milvus"].Error = err.Error()
		} else {
			checks["milvus"].Status = "ok"
		}
	}

	resp := readinessResponse{
		Status: "ok",
		Checks: checks,
	}
	if !ready {
		resp.Status = "not_ready"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
