package rag

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"newsrag-api/internal/domain/entity"
	apperrors "newsrag-api/pkg/errors"
	"newsrag-api/pkg/logger"
)

const (
	defaultTopK           = 5
	defaultScoreThreshold = 0.3
)

// Pipeline 检索增强问答管线：组合 Embedding、向量索引、句子抽取与
// 答案生成，对外暴露 Index / Answer / Stats / HealthCheck。
type Pipeline struct {
	embedder  *Embedder
	index     VectorIndex
	extractor *Extractor
	generator *AnswerGenerator

	topK           int
	scoreThreshold float64
}

// NewPipeline 创建管线；topK<=0、scoreThreshold<=0 时使用默认值（5 / 0.3）
func NewPipeline(embedder *Embedder, index VectorIndex, extractor *Extractor, generator *AnswerGenerator, topK int, scoreThreshold float64) *Pipeline {
	if topK <= 0 {
		topK = defaultTopK
	}
	if scoreThreshold <= 0 {
		scoreThreshold = defaultScoreThreshold
	}
	if extractor == nil {
		extractor = NewExtractor(0, 0)
	}
	return &Pipeline{
		embedder:       embedder,
		index:          index,
		extractor:      extractor,
		generator:      generator,
		topK:           topK,
		scoreThreshold: scoreThreshold,
	}
}

// Index 将文档逐条向量化后单批写入向量索引，返回实际写入数量。
// 单条文档的 Embedding 失败只跳过该条并继续，调用方通过
// 返回值 < len(docs) 识别部分成功；向量库写入失败时退化为 0 写入。
func (p *Pipeline) Index(ctx context.Context, docs []*entity.Document) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	if err := p.index.EnsureCollection(ctx); err != nil {
		logger.Error(ctx, "failed to ensure collection, nothing stored", err)
		return 0, apperrors.Wrap(err, apperrors.CodeVectorDBError, "vector store unavailable")
	}

	points := make([]entity.IndexedPoint, 0, len(docs))
	for i, doc := range docs {
		if doc == nil {
			continue
		}

		text := compositeText(doc)
		if text == "" {
			logger.Warn(ctx, "document has no embeddable text, skipping", "index", i, "doc_id", doc.ID)
			continue
		}

		embs, err := p.embedder.Embed(ctx, []string{text})
		if err != nil {
			logger.Warn(ctx, "document embedding failed, skipping",
				"index", i,
				"doc_id", doc.ID,
				"error", err.Error(),
			)
			continue
		}

		points = append(points, entity.IndexedPoint{
			ID:      pointID(doc),
			Vector:  embs[0].Vector,
			Payload: doc.Payload(),
		})
	}

	if len(points) == 0 {
		return 0, nil
	}

	stored, err := p.index.Upsert(ctx, points)
	if err != nil {
		logger.Error(ctx, "vector store upsert failed, nothing stored", err, "points", len(points))
		return 0, apperrors.Wrap(err, apperrors.CodeVectorDBError, "vector store upsert failed")
	}
	return stored, nil
}

// Answer 执行一次问答：查询向量化 -> 阈值过滤检索 -> 逐条句子抽取 ->
// 答案生成。返回文本与来源列表；来源与生成上下文严格同序同集。
// 检索失败退化为空上下文（触发"未找到相关新闻"路径），不上抛。
func (p *Pipeline) Answer(ctx context.Context, query string, k int) (*entity.Answer, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrEmptyInput)
	}
	if k <= 0 {
		k = p.topK
	}

	vec, err := p.embedder.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	hits, err := p.index.Search(ctx, vec, k, p.scoreThreshold)
	if err != nil {
		logger.Error(ctx, "vector search failed, degrading to empty context", err)
		hits = nil
	}

	for i := range hits {
		hits[i].RelevantSentence = p.extractor.Extract(hits[i].Content, hits[i].Description, q)
	}

	text := p.generator.Generate(ctx, q, hits)

	sources := make([]entity.SourceRef, 0, len(hits))
	for _, h := range hits {
		sources = append(sources, entity.SourceRef{
			Title:      h.Title,
			Source:     h.Source,
			URL:        h.URL,
			Similarity: roundScore(h.Score),
		})
	}

	return &entity.Answer{Text: text, Sources: sources}, nil
}

// Stats 返回向量索引统计
func (p *Pipeline) Stats(ctx context.Context) (*entity.IndexStats, error) {
	return p.index.Stats(ctx)
}

// HealthCheck 返回管线健康状态，从不报错
func (p *Pipeline) HealthCheck(ctx context.Context) *entity.Health {
	h := &entity.Health{Status: "unhealthy"}
	if p == nil || p.index == nil {
		return h
	}

	h.VectorStoreReachable = p.index.IsReachable(ctx)
	if !h.VectorStoreReachable {
		return h
	}

	if stats, err := p.index.Stats(ctx); err == nil {
		h.DocumentCount = stats.Count
		h.Status = "healthy"
	}
	return h
}

// compositeText 拼接标题/摘要/正文为单条 Embedding 输入
func compositeText(doc *entity.Document) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{doc.Title, doc.Description, doc.Content} {
		if t := strings.TrimSpace(s); t != "" {
			parts = append(parts, t)
		}
	}
	return Normalize(strings.Join(parts, "\n"))
}

// pointID 文档自带 id 时沿用（幂等重摄取），否则生成新 id
func pointID(doc *entity.Document) string {
	if id := strings.TrimSpace(doc.ID); id != "" {
		return id
	}
	return uuid.NewString()
}

func roundScore(score float64) float64 {
	return math.Round(score*1000) / 1000
}
