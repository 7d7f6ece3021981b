// Package generation 提供大模型生成实现
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"newsrag-api/internal/config"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/metrics"
)

const defaultTimeout = 30 * time.Second

// GeminiModel 调用 Gemini API 生成回答，实现 rag.GenerationModel
type GeminiModel struct {
	client  *genai.Client
	model   string
	cfg     *config.GenerationConfig
	timeout time.Duration
}

// NewGeminiModel 创建 Gemini 生成模型客户端
func NewGeminiModel(ctx context.Context, cfg *config.GenerationConfig) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("generation api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GeminiModel{
		client:  client,
		model:   cfg.Model,
		cfg:     cfg,
		timeout: timeout,
	}, nil
}

// Generate 以单轮文本请求调用模型，返回纯文本回答
func (m *GeminiModel) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	start := time.Now()
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](m.cfg.Temperature),
		TopP:            genai.Ptr[float32](m.cfg.TopP),
		TopK:            genai.Ptr[float32](m.cfg.TopK),
		MaxOutputTokens: m.cfg.MaxOutputTokens,
	})
	metrics.GenerationCallDuration.WithLabelValues(m.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationCallTotal.WithLabelValues(m.model, "error").Inc()
		logger.Warn(ctx, "gemini generation failed", "model", m.model, "error", err)
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.GenerationCallTotal.WithLabelValues(m.model, "empty").Inc()
		return "", fmt.Errorf("gemini returned empty response")
	}
	metrics.GenerationCallTotal.WithLabelValues(m.model, "success").Inc()
	return text, nil
}
