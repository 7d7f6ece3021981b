package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"newsrag-api/internal/domain/entity"
)

// fakeModel 可编程的生成模型桩
type fakeModel struct {
	text    string
	err     error
	prompts []string
}

func (m *fakeModel) Generate(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.text, m.err
}

func sampleHits() []entity.RetrievalResult {
	return []entity.RetrievalResult{
		{
			DocumentPayload: entity.DocumentPayload{
				Title:       "Apple unveils new chip",
				Description: "Apple introduced its next generation silicon.",
				Content:     "Apple introduced its next generation silicon at a launch event.",
				Source:      "Reuters",
				PublishDate: "2026-08-01T10:00:00Z",
			},
			ID:               "doc-1",
			Score:            0.82,
			RelevantSentence: "Apple introduced its next generation silicon at a launch event.",
		},
		{
			DocumentPayload: entity.DocumentPayload{
				Title:       "Markets react to chip news",
				Description: "Semiconductor stocks rallied after the announcement.",
				Source:      "Bloomberg",
			},
			ID:    "doc-2",
			Score: 0.61,
		},
	}
}

func TestGenerateNoContext(t *testing.T) {
	model := &fakeModel{text: "should not be called"}
	g := NewAnswerGenerator(model)

	got := g.Generate(context.Background(), "anything", nil)

	assert.Equal(t, noRelevantNewsMessage, got)
	// 无上下文时不得调用提供商
	assert.Empty(t, model.prompts)
}

func TestGenerateSuccess(t *testing.T) {
	model := &fakeModel{text: "Apple launched a new chip, per Reuters."}
	g := NewAnswerGenerator(model)

	got := g.Generate(context.Background(), "What did Apple announce?", sampleHits())

	assert.Equal(t, "Apple launched a new chip, per Reuters.", got)
	assert.Len(t, model.prompts, 1)
}

func TestGenerateProviderErrorFallsBack(t *testing.T) {
	model := &fakeModel{err: errors.New("provider down")}
	g := NewAnswerGenerator(model)

	got := g.Generate(context.Background(), "What did Apple announce?", sampleHits())

	// 抽取式兜底：最高分条目的标题与摘要
	assert.Contains(t, got, "Apple unveils new chip")
	assert.Contains(t, got, "Apple introduced its next generation silicon.")
	assert.Contains(t, got, "(Source: Reuters)")
}

func TestGenerateEmptyResponseFallsBack(t *testing.T) {
	model := &fakeModel{text: "   "}
	g := NewAnswerGenerator(model)

	got := g.Generate(context.Background(), "What did Apple announce?", sampleHits())

	assert.Contains(t, got, "Apple unveils new chip")
}

func TestGenerateNilModelFallsBack(t *testing.T) {
	g := NewAnswerGenerator(nil)

	got := g.Generate(context.Background(), "query", sampleHits())

	assert.Contains(t, got, "Apple unveils new chip")
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("What did Apple announce?", sampleHits())

	// 条目按传入顺序编号
	idx1 := strings.Index(prompt, "[1] Apple unveils new chip")
	idx2 := strings.Index(prompt, "[2] Markets react to chip news")
	assert.Greater(t, idx1, -1)
	assert.Greater(t, idx2, idx1)

	// 首选 RelevantSentence，缺失时用 Description
	assert.Contains(t, prompt, "Apple introduced its next generation silicon at a launch event.")
	assert.Contains(t, prompt, "Semiconductor stocks rallied after the announcement.")

	assert.Contains(t, prompt, "Source: Reuters | Published: 2026-08-01T10:00:00Z")
	assert.Contains(t, prompt, "Question: What did Apple announce?")
	assert.Contains(t, prompt, "do not invent facts")
}
