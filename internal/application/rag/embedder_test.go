package rag

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend 确定性后端：向量首元素编码调用内的输入序号，
// 可按调用次数注入失败
type fakeBackend struct {
	dimension int
	calls     int
	failCalls map[int]error
}

func newFakeBackend(dim int) *fakeBackend {
	return &fakeBackend{dimension: dim, failCalls: map[int]error{}}
}

func (b *fakeBackend) Name() string   { return "fake" }
func (b *fakeBackend) Dimension() int { return b.dimension }

func (b *fakeBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	b.calls++
	if err, ok := b.failCalls[b.calls]; ok {
		return nil, err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, b.dimension)
		vec[0] = float32(i)
		out[i] = vec
	}
	return out, nil
}

func TestEmbedPreservesOrder(t *testing.T) {
	e := NewEmbedder(newFakeBackend(4), 0, time.Millisecond)

	texts := []string{"first text here", "second text here", "third text here"}
	got, err := e.Embed(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, got, 3)

	for i, emb := range got {
		assert.Equal(t, float32(i), emb.Vector[0], "vector %d out of order", i)
		assert.Equal(t, texts[i], emb.SourceText)
		assert.Equal(t, 4, emb.Dimension)
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	e := NewEmbedder(newFakeBackend(4), 0, time.Millisecond)

	_, err := e.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, err = e.Embed(context.Background(), []string{"ok text", "   "})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestEmbedNormalizesInput(t *testing.T) {
	e := NewEmbedder(newFakeBackend(4), 0, time.Millisecond)

	got, err := e.Embed(context.Background(), []string{"  <b>tagged</b>   text  "})
	require.NoError(t, err)
	assert.Equal(t, "tagged text", got[0].SourceText)
}

func TestEmbedQuery(t *testing.T) {
	e := NewEmbedder(newFakeBackend(8), 0, time.Millisecond)

	vec, err := e.EmbedQuery(context.Background(), "what happened today")
	require.NoError(t, err)
	assert.Len(t, vec, 8)
}

func TestEmbedBatchChunksAndSkipsFailures(t *testing.T) {
	backend := newFakeBackend(4)
	// 第二块失败
	backend.failCalls[2] = errors.New("rate limited")
	e := NewEmbedder(backend, 0, time.Millisecond)

	texts := make([]string, 5)
	for i := range texts {
		texts[i] = fmt.Sprintf("document number %d", i)
	}

	got, err := e.EmbedBatch(context.Background(), texts, 2)
	require.NoError(t, err)

	// 5 条输入按 2 分块 -> 3 次调用，第二块（2 条）被跳过
	assert.Equal(t, 3, backend.calls)
	assert.Len(t, got, 3)
	assert.Equal(t, "document number 0", got[0].SourceText)
	assert.Equal(t, "document number 1", got[1].SourceText)
	assert.Equal(t, "document number 4", got[2].SourceText)
}

func TestEmbedBatchContextCancelled(t *testing.T) {
	e := NewEmbedder(newFakeBackend(4), 0, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := e.EmbedBatch(ctx, []string{"one text", "two text", "three text"}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	// 第一块在取消前已完成
	assert.Len(t, got, 1)
}
