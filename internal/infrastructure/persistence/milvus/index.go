// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"time"

	milvusentity "github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/metrics"
)

// Index 基于 Milvus 的向量索引，实现 rag.VectorIndex
type Index struct {
	client    *Client
	dimension int
}

// NewIndex 创建向量索引适配器
func NewIndex(client *Client, dimension int) *Index {
	return &Index{
		client:    client,
		dimension: dimension,
	}
}

// EnsureCollection 确保集合与索引可用（不存在则创建）。
// 约束：不做 drop/rebuild 等破坏性操作。
func (idx *Index) EnsureCollection(ctx context.Context) error {
	if idx == nil || idx.client == nil || idx.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", CollectionNewsDocuments)))
	defer span.End()

	exists, err := idx.client.HasCollection(ctx, CollectionNewsDocuments)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}

	if !exists {
		logger.Info(ctx, "creating collection", "collection", CollectionNewsDocuments, "dimension", idx.dimension)

		schema := NewsDocumentsSchema(idx.dimension)
		schema.CollectionName = idx.client.CollectionName(CollectionNewsDocuments)
		if err := idx.client.milvus.CreateCollection(ctx, schema, milvusentity.DefaultShardNumber); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to create collection: %w", err)
		}
		if err := idx.createIndex(ctx); err != nil {
			span.RecordError(err)
			return err
		}
	} else {
		logger.Debug(ctx, "collection already exists", "collection", CollectionNewsDocuments)
	}

	return idx.client.LoadCollection(ctx, CollectionNewsDocuments)
}

func (idx *Index) createIndex(ctx context.Context) error {
	m := idx.client.config.HNSWM
	if m <= 0 {
		m = 16
	}
	efConstruction := idx.client.config.HNSWEfConstruction
	if efConstruction <= 0 {
		efConstruction = 200
	}

	hnsw, err := milvusentity.NewIndexHNSW(milvusentity.COSINE, m, efConstruction)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	collName := idx.client.CollectionName(CollectionNewsDocuments)
	if err := idx.client.milvus.CreateIndex(ctx, collName, "vector", hnsw, false); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

// Upsert 批量写入文档点；相同 id 为覆盖写。写入后 Flush，
// 保证返回时数据已持久化可检索。
func (idx *Index) Upsert(ctx context.Context, points []entity.IndexedPoint) (int, error) {
	if idx == nil || idx.client == nil || idx.client.milvus == nil {
		return 0, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(attribute.Int("count", len(points))))
	defer span.End()

	if len(points) == 0 {
		return 0, nil
	}

	ids := make([]string, len(points))
	vectors := make([][]float32, len(points))
	titles := make([]string, len(points))
	descriptions := make([]string, len(points))
	contents := make([]string, len(points))
	urls := make([]string, len(points))
	sources := make([]string, len(points))
	categories := make([]string, len(points))
	publishDates := make([]string, len(points))
	createdAts := make([]string, len(points))

	for i, p := range points {
		ids[i] = p.ID
		vectors[i] = p.Vector
		titles[i] = p.Payload.Title
		descriptions[i] = p.Payload.Description
		contents[i] = p.Payload.Content
		urls[i] = p.Payload.URL
		sources[i] = p.Payload.Source
		categories[i] = p.Payload.Category
		publishDates[i] = p.Payload.PublishDate
		createdAts[i] = p.Payload.CreatedAt
	}

	collName := idx.client.CollectionName(CollectionNewsDocuments)

	_, err := idx.client.milvus.Upsert(ctx, collName, "",
		milvusentity.NewColumnVarChar("id", ids),
		milvusentity.NewColumnFloatVector("vector", idx.dimension, vectors),
		milvusentity.NewColumnVarChar("title", titles),
		milvusentity.NewColumnVarChar("description", descriptions),
		milvusentity.NewColumnVarChar("content", contents),
		milvusentity.NewColumnVarChar("url", urls),
		milvusentity.NewColumnVarChar("source", sources),
		milvusentity.NewColumnVarChar("category", categories),
		milvusentity.NewColumnVarChar("publish_date", publishDates),
		milvusentity.NewColumnVarChar("created_at", createdAts),
	)
	if err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to upsert documents: %w", err)
	}

	// Flush 后写入对检索立即可见
	if err := idx.client.milvus.Flush(ctx, collName, false); err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to flush collection: %w", err)
	}

	return len(points), nil
}

// Search 以余弦相似度检索 TopK，并在客户端按阈值过滤。
// Milvus COSINE 返回的 score 即相似度，越大越相关。
func (idx *Index) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float64) ([]entity.RetrievalResult, error) {
	if idx == nil || idx.client == nil || idx.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.Int("limit", limit),
			attribute.Float64("score_threshold", scoreThreshold),
		))
	defer span.End()

	collName := idx.client.CollectionName(CollectionNewsDocuments)

	sp, err := milvusentity.NewIndexHNSWSearchParam(128)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to create search param: %w", err)
	}

	start := time.Now()
	results, err := idx.client.milvus.Search(ctx,
		collName,
		nil,
		"",
		payloadFields,
		[]milvusentity.Vector{milvusentity.FloatVector(vector)},
		"vector",
		milvusentity.COSINE,
		limit,
		sp,
	)
	metrics.VectorSearchDuration.WithLabelValues(CollectionNewsDocuments).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.VectorSearchTotal.WithLabelValues(CollectionNewsDocuments, "error").Inc()
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	metrics.VectorSearchTotal.WithLabelValues(CollectionNewsDocuments, "success").Inc()

	var hits []entity.RetrievalResult
	for _, result := range results {
		for i := 0; i < result.ResultCount; i++ {
			score := float64(result.Scores[i])
			if score < scoreThreshold {
				continue
			}

			hit := entity.RetrievalResult{Score: score}
			stringField := func(name string) string {
				if col, ok := result.Fields.GetColumn(name).(*milvusentity.ColumnVarChar); ok {
					return col.Data()[i]
				}
				return ""
			}
			hit.ID = stringField("id")
			hit.Title = stringField("title")
			hit.Description = stringField("description")
			hit.Content = stringField("content")
			hit.URL = stringField("url")
			hit.Source = stringField("source")
			hit.Category = stringField("category")
			hit.PublishDate = stringField("publish_date")
			hit.CreatedAt = stringField("created_at")

			hits = append(hits, hit)
		}
	}

	metrics.VectorSearchResults.WithLabelValues(CollectionNewsDocuments).Observe(float64(len(hits)))
	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

// Stats 返回集合的只读统计
func (idx *Index) Stats(ctx context.Context) (*entity.IndexStats, error) {
	if idx == nil || idx.client == nil || idx.client.milvus == nil {
		return nil, fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Stats")
	defer span.End()

	collName := idx.client.CollectionName(CollectionNewsDocuments)

	exists, err := idx.client.HasCollection(ctx, CollectionNewsDocuments)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return &entity.IndexStats{
			Dimension:  idx.dimension,
			MetricType: "COSINE",
			Status:     "absent",
		}, nil
	}

	stats, err := idx.client.milvus.GetCollectionStatistics(ctx, collName)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to get collection statistics: %w", err)
	}

	var count int64
	if raw, ok := stats["row_count"]; ok {
		count, _ = strconv.ParseInt(raw, 10, 64)
	}

	return &entity.IndexStats{
		Count:      count,
		Dimension:  idx.dimension,
		MetricType: "COSINE",
		Status:     "ready",
	}, nil
}

// Clear 删除并重建集合，用于全量重建索引
func (idx *Index) Clear(ctx context.Context) error {
	if idx == nil || idx.client == nil || idx.client.milvus == nil {
		return fmt.Errorf("milvus client not configured")
	}
	ctx, span := tracer.Start(ctx, "milvus.Clear")
	defer span.End()

	collName := idx.client.CollectionName(CollectionNewsDocuments)

	exists, err := idx.client.HasCollection(ctx, CollectionNewsDocuments)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		if err := idx.client.milvus.DropCollection(ctx, collName); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to drop collection: %w", err)
		}
		logger.Info(ctx, "collection dropped", "collection", CollectionNewsDocuments)
	}

	return idx.EnsureCollection(ctx)
}

// IsReachable 探测向量库是否可达，仅用于健康检查，不返回错误
func (idx *Index) IsReachable(ctx context.Context) bool {
	if idx == nil || idx.client == nil || idx.client.milvus == nil {
		return false
	}
	return idx.client.HealthCheck(ctx) == nil
}
