package rag

import (
	"context"
	"fmt"
	"strings"

	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/metrics"
)

// GenerationModel 定义对生成模型提供商的最小依赖（port）
type GenerationModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// 用户可见的固定兜底文案
const (
	noRelevantNewsMessage = "I couldn't find any relevant news articles for your question. Try rephrasing it or asking about a different topic."
	tryAgainLaterMessage  = "I'm having trouble answering right now. Please try again later."
)

const promptExcerptRunes = 500

// AnswerGenerator 基于召回上下文合成答案；生成失败时退化为抽取式
// 摘要，保证对上层永远返回可读文本、永不抛错。
type AnswerGenerator struct {
	model GenerationModel
}

// NewAnswerGenerator 创建答案生成器
func NewAnswerGenerator(model GenerationModel) *AnswerGenerator {
	return &AnswerGenerator{model: model}
}

// Generate 按线性状态机执行：无上下文 -> 固定文案（不调提供商）；
// 否则组装 prompt -> 调提供商 -> 成功原样返回 / 失败走抽取式兜底。
func (g *AnswerGenerator) Generate(ctx context.Context, query string, contextItems []entity.RetrievalResult) string {
	if len(contextItems) == 0 {
		metrics.GenerationFallbackTotal.WithLabelValues("no_context").Inc()
		return noRelevantNewsMessage
	}

	prompt := BuildPrompt(query, contextItems)

	if g != nil && g.model != nil {
		text, err := g.model.Generate(ctx, prompt)
		if err == nil && strings.TrimSpace(text) != "" {
			return text
		}
		logger.Warn(ctx, "generation provider failed, using extractive fallback",
			"context_items", len(contextItems),
			"error", errString(err),
		)
	}

	metrics.GenerationFallbackTotal.WithLabelValues("provider_error").Inc()
	return extractiveFallback(contextItems)
}

// BuildPrompt 将召回结果格式化为 grounding prompt。
// 上下文条目保持传入顺序（即相似度降序）。
func BuildPrompt(query string, items []entity.RetrievalResult) string {
	var sb strings.Builder
	sb.WriteString("You are a news assistant. Answer the user's question using only the news articles below.\n\nArticles:\n")

	for i, item := range items {
		excerpt := strings.TrimSpace(item.RelevantSentence)
		if excerpt == "" {
			excerpt = strings.TrimSpace(item.Description)
		}
		if excerpt == "" {
			excerpt = truncateRunes(strings.TrimSpace(item.Content), promptExcerptRunes)
		}

		sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, strings.TrimSpace(item.Title)))
		sb.WriteString(fmt.Sprintf("    %s\n", excerpt))
		sb.WriteString(fmt.Sprintf("    Source: %s", strings.TrimSpace(item.Source)))
		if date := strings.TrimSpace(item.PublishDate); date != "" {
			sb.WriteString(" | Published: " + date)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nQuestion: " + strings.TrimSpace(query) + "\n")
	sb.WriteString(`
Instructions:
- Answer only from the articles above; do not invent facts.
- Be concise and stay under roughly 300 words.
- Cite the article sources when it is natural to do so.
- If the articles do not contain enough information, say so explicitly.`)

	return sb.String()
}

// extractiveFallback 用相似度最高的一条上下文拼一段摘要。
// 上下文为空时（状态 1 已拦截，理论上不可达）返回通用重试文案。
func extractiveFallback(items []entity.RetrievalResult) string {
	if len(items) == 0 {
		return tryAgainLaterMessage
	}

	top := items[0]
	body := strings.TrimSpace(top.Description)
	if body == "" {
		body = truncateRunes(strings.TrimSpace(top.Content), 200)
	}

	var sb strings.Builder
	sb.WriteString("Here is the most relevant article I found: ")
	sb.WriteString(strings.TrimSpace(top.Title))
	if body != "" {
		sb.WriteString(". ")
		sb.WriteString(body)
	}
	if src := strings.TrimSpace(top.Source); src != "" {
		sb.WriteString(" (Source: " + src + ")")
	}
	return sb.String()
}

func errString(err error) string {
	if err == nil {
		return "empty response"
	}
	return err.Error()
}
