package rag

import (
	"context"
	"fmt"
	"time"

	apperrors "newsrag-api/pkg/errors"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/metrics"
)

const (
	defaultEmbeddingBatch = 32
	defaultChunkDelay     = time.Second
)

// EmbeddingBackend 定义对 Embedding 提供商的最小依赖（port）。
// remote 实现走 HTTP 提供商；synthetic 实现生成随机向量，供无凭证开发用。
// 选择发生在装配期，业务逻辑内不做环境分支。
type EmbeddingBackend interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Embedding 单条文本的向量化结果
type Embedding struct {
	Vector     []float32
	SourceText string
	Dimension  int
}

// Embedder Embedding 生成服务：归一化输入、调用后端、保序返回
type Embedder struct {
	backend       EmbeddingBackend
	maxInputRunes int
	chunkDelay    time.Duration
}

// NewEmbedder 创建 Embedder；maxInputRunes<=0、chunkDelay<=0 时使用默认值
func NewEmbedder(backend EmbeddingBackend, maxInputRunes int, chunkDelay time.Duration) *Embedder {
	if maxInputRunes <= 0 {
		maxInputRunes = DefaultMaxInputRunes
	}
	if chunkDelay <= 0 {
		chunkDelay = defaultChunkDelay
	}
	return &Embedder{
		backend:       backend,
		maxInputRunes: maxInputRunes,
		chunkDelay:    chunkDelay,
	}
}

// Embed 将整批文本一次性提交给提供商，结果与输入同序。
// 每条文本先经归一化；归一化后为空的文本视为调用方错误。
func (e *Embedder) Embed(ctx context.Context, texts []string) ([]Embedding, error) {
	if e == nil || e.backend == nil {
		return nil, apperrors.New(apperrors.CodeEmbeddingFailed, "embedding backend not configured")
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", ErrEmptyInput)
	}

	normalized := make([]string, len(texts))
	for i, t := range texts {
		n := NormalizeWithLimit(t, e.maxInputRunes)
		if n == "" {
			return nil, fmt.Errorf("%w: text %d is empty after normalization", ErrEmptyInput, i)
		}
		normalized[i] = n
	}

	start := time.Now()
	vectors, err := e.backend.Embed(ctx, normalized)
	metrics.EmbeddingCallDuration.WithLabelValues(e.backend.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.EmbeddingCallTotal.WithLabelValues(e.backend.Name(), "error").Inc()
		return nil, apperrors.Wrap(err, apperrors.CodeEmbeddingProviderError, "embedding provider call failed")
	}
	metrics.EmbeddingCallTotal.WithLabelValues(e.backend.Name(), "ok").Inc()

	if len(vectors) != len(normalized) {
		return nil, apperrors.New(apperrors.CodeEmbeddingProviderError,
			fmt.Sprintf("embedding provider returned %d vectors for %d inputs", len(vectors), len(normalized)))
	}

	out := make([]Embedding, len(vectors))
	for i, v := range vectors {
		out[i] = Embedding{
			Vector:     v,
			SourceText: normalized[i],
			Dimension:  len(v),
		}
	}
	return out, nil
}

// EmbedQuery 对单条查询文本做向量化，返回其向量
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	result, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return result[0].Vector, nil
}

// EmbedBatch 将输入按 batchSize 分块、顺序提交，块间留出固定间隔以
// 规避提供商限流。单块失败仅记录并跳过，剩余块继续处理——返回数量
// 可能少于输入数量，调用方通过 len(out) < len(texts) 识别部分结果。
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string, batchSize int) ([]Embedding, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", ErrEmptyInput)
	}
	if batchSize <= 0 {
		batchSize = defaultEmbeddingBatch
	}

	out := make([]Embedding, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(e.chunkDelay):
			}
		}

		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		chunk, err := e.Embed(ctx, texts[start:end])
		if err != nil {
			logger.Warn(ctx, "embedding chunk failed, skipping",
				"chunk_start", start,
				"chunk_size", end-start,
				"error", err.Error(),
			)
			metrics.EmbeddingBatchSkipped.Inc()
			continue
		}
		out = append(out, chunk...)
	}
	return out, nil
}
