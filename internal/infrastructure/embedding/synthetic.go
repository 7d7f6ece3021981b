package embedding

import (
	"context"
	"math"
	"math/rand"

	"newsrag-api/pkg/logger"
)

// SyntheticBackend 生成确定性伪随机向量，用于本地开发与集成测试，
// 不依赖任何外部提供商
type SyntheticBackend struct {
	dimension int
}

// NewSyntheticBackend 创建合成 Embedding 后端
func NewSyntheticBackend(dimension int) *SyntheticBackend {
	return &SyntheticBackend{dimension: dimension}
}

// Name 返回后端标识
func (b *SyntheticBackend) Name() string { return "synthetic" }

// Dimension 返回配置的向量维度
func (b *SyntheticBackend) Dimension() int { return b.dimension }

// Embed 为每条文本生成单位向量；以文本内容为种子，
// 同一文本始终得到同一向量，检索结果在开发环境可复现
func (b *SyntheticBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	logger.Debug(ctx, "generating synthetic embeddings",
		"count", len(texts),
		"dimension", b.dimension,
	)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = b.vectorFor(text)
	}
	return out, nil
}

func (b *SyntheticBackend) vectorFor(text string) []float32 {
	rng := rand.New(rand.NewSource(seedOf(text)))
	vec := make([]float32, b.dimension)
	var norm float64
	for i := range vec {
		v := rng.Float64()*2 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	// 归一化为单位向量，余弦相似度落在稳定区间
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

func seedOf(text string) int64 {
	// FNV-1a
	var h uint64 = 14695981039346656037
	for _, c := range []byte(text) {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return int64(h)
}
