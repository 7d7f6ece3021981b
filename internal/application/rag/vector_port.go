package rag

import (
	"context"

	"newsrag-api/internal/domain/entity"
)

// VectorIndex 定义应用层对向量存储/检索的最小依赖（port）。
// 由基础设施层提供具体实现（例如 Milvus）。
type VectorIndex interface {
	// EnsureCollection 幂等地确保集合存在；已存在且配置匹配时不得报错。
	EnsureCollection(ctx context.Context) error

	// Upsert 单批写入全部点并等待写入确认，返回写入数量。
	// 点的 id 决定覆盖还是新增（稳定 id 支撑幂等重摄取）。
	Upsert(ctx context.Context, points []entity.IndexedPoint) (int, error)

	// Search 返回至多 limit 个近邻，过滤掉分数低于 scoreThreshold 的结果；
	// 空结果集是合法返回（无文档过阈值），不是错误。
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]entity.RetrievalResult, error)

	// Stats 只读统计
	Stats(ctx context.Context) (*entity.IndexStats, error)

	// Clear 删除并重建集合（全量重置）
	Clear(ctx context.Context) error

	// IsReachable 存活探测，不抛错
	IsReachable(ctx context.Context) bool
}
