package rag

import (
	"fmt"
	"math"
)

// CosineSimilarity 计算两个等长向量的余弦相似度，取值 [-1, 1]。
// 任一向量模为零时返回 0（定义行为，非错误）；维度不一致返回 ErrDimensionMismatch。
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d != %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x := float64(a[i])
		y := float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}

// IsValidVector 校验 v 是非空且全部为有限数的向量
func IsValidVector(v []float32) bool {
	if len(v) == 0 {
		return false
	}
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}
