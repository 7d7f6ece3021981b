// Package embedding 提供 Embedding 后端实现
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"newsrag-api/internal/config"
)

var tracer = otel.Tracer("embedding")

const defaultTimeout = 30 * time.Second

// RemoteBackend 通过 HTTP 调用外部 Embedding 提供商
type RemoteBackend struct {
	endpoint   string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
}

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponseItem struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embedResponse struct {
	Data []embedResponseItem `json:"data"`
}

// NewRemoteBackend 创建远端 Embedding 后端
func NewRemoteBackend(cfg *config.EmbeddingConfig) (*RemoteBackend, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("embedding endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &RemoteBackend{
		endpoint:  cfg.Endpoint,
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name 返回后端标识
func (b *RemoteBackend) Name() string { return "remote" }

// Dimension 返回配置的向量维度
func (b *RemoteBackend) Dimension() int { return b.dimension }

// Embed 整批提交文本；提供商返回的结果按 index 字段匹配回输入顺序
func (b *RemoteBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, span := tracer.Start(ctx, "embedding.Embed",
		trace.WithAttributes(attribute.Int("batch_size", len(texts))))
	defer span.End()

	reqBody, err := json.Marshal(&embedRequest{
		Input: texts,
		Model: b.model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	httpResp, err := b.httpClient.Do(httpReq)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding request failed: status=%d", httpResp.StatusCode)
	}

	var resp embedResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d items for %d inputs", len(resp.Data), len(texts))
	}

	// 提供商不保证返回顺序，按 index 还原输入顺序
	sort.Slice(resp.Data, func(i, j int) bool {
		return resp.Data[i].Index < resp.Data[j].Index
	})

	out := make([][]float32, len(resp.Data))
	for i, item := range resp.Data {
		// 排序后下标必须与 index 一一对应，重复或缺失的 index 会错位
		if item.Index != i {
			return nil, fmt.Errorf("embedding response index %d does not match position %d", item.Index, i)
		}
		if len(item.Embedding) == 0 {
			return nil, fmt.Errorf("embedding response item %d is empty", item.Index)
		}
		out[i] = item.Embedding
	}
	return out, nil
}
