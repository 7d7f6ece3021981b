package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/domain/entity"
	"newsrag-api/internal/infrastructure/persistence/redis"
	"newsrag-api/internal/interfaces/http/dto"
)

const statsCacheTTL = 30 * time.Second

// StatsHandler 索引统计处理器
type StatsHandler struct {
	pipeline *rag.Pipeline
	cache    *redis.Cache
}

// NewStatsHandler 创建统计处理器
func NewStatsHandler(pipeline *rag.Pipeline, cache *redis.Cache) *StatsHandler {
	return &StatsHandler{
		pipeline: pipeline,
		cache:    cache,
	}
}

// Stats 索引统计接口
// @Summary 索引统计
// @Description 返回向量索引的文档数、维度与度量类型；短 TTL 缓存
// @Tags System
// @Produce json
// @Success 200 {object} dto.Response[dto.StatsResponse]
// @Router /v1/stats [get]
func (h *StatsHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	load := func() (interface{}, error) {
		return h.pipeline.Stats(ctx)
	}

	var stats entity.IndexStats
	if h.cache != nil {
		raw, err := h.cache.GetOrLoadSafe(ctx, redis.StatsCacheKey, statsCacheTTL, load)
		if err != nil {
			dto.AppError(c, err)
			return
		}
		if err := json.Unmarshal(raw, &stats); err != nil {
			dto.InternalError(c, "failed to decode stats")
			return
		}
	} else {
		result, err := h.pipeline.Stats(ctx)
		if err != nil {
			dto.AppError(c, err)
			return
		}
		stats = *result
	}

	dto.Success(c, dto.StatsResponse{
		Count:      stats.Count,
		Dimension:  stats.Dimension,
		MetricType: stats.MetricType,
		Status:     stats.Status,
	})
}
