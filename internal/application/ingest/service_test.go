package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/domain/entity"
)

// memBackend 固定维度的确定性 Embedding 后端
type memBackend struct{ dim int }

func (b memBackend) Name() string   { return "mem" }
func (b memBackend) Dimension() int { return b.dim }
func (b memBackend) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, b.dim)
		out[i][0] = 1
	}
	return out, nil
}

// memIndex 内存向量索引
type memIndex struct {
	points  []entity.IndexedPoint
	cleared int
}

func (m *memIndex) EnsureCollection(context.Context) error { return nil }
func (m *memIndex) Upsert(_ context.Context, points []entity.IndexedPoint) (int, error) {
	m.points = append(m.points, points...)
	return len(points), nil
}
func (m *memIndex) Search(context.Context, []float32, int, float64) ([]entity.RetrievalResult, error) {
	return nil, nil
}
func (m *memIndex) Stats(context.Context) (*entity.IndexStats, error) {
	return &entity.IndexStats{Count: int64(len(m.points)), Dimension: 4, MetricType: "COSINE", Status: "ready"}, nil
}
func (m *memIndex) Clear(context.Context) error {
	m.cleared++
	m.points = nil
	return nil
}
func (m *memIndex) IsReachable(context.Context) bool { return true }

const serviceFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Example World News</title>
  <item>
    <title>A headline long enough to pass validation</title>
    <link>https://example.com/one</link>
    <description>A description that comfortably exceeds the thirty character floor.</description>
  </item>
  <item>
    <title>Short</title>
    <link>https://example.com/two</link>
    <description>A description that comfortably exceeds the thirty character floor.</description>
  </item>
</channel>
</rss>`

func newTestService(t *testing.T, feeds map[string][]string) (*Service, *memIndex) {
	t.Helper()
	index := &memIndex{}
	embedder := rag.NewEmbedder(memBackend{dim: 4}, 0, time.Millisecond)
	pipeline := rag.NewPipeline(embedder, index, rag.NewExtractor(0, 0), rag.NewAnswerGenerator(nil), 5, 0.3)
	fetcher := NewFetcher(5*time.Second, "newsrag-test/1.0")
	return NewService(fetcher, pipeline, index, NewStrategySet(feeds), nil), index
}

func TestServiceFetchCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(serviceFeed))
	}))
	defer srv.Close()

	service, index := newTestService(t, map[string][]string{"world": {srv.URL}})

	report, err := service.FetchCategory(context.Background(), "world")
	require.NoError(t, err)

	assert.Equal(t, 1, report.Feeds)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, report.Fetched)
	assert.Equal(t, 1, report.Rejected, "short title must be rejected")
	assert.Equal(t, 1, report.Indexed)
	assert.Len(t, index.points, 1)
}

func TestServiceUnknownCategory(t *testing.T) {
	service, _ := newTestService(t, map[string][]string{"world": {"https://example.com/feed"}})

	_, err := service.FetchCategory(context.Background(), "sports")
	assert.Error(t, err)
}

func TestServiceToleratesFailedFeeds(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(serviceFeed))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	service, index := newTestService(t, map[string][]string{"world": {bad.URL, good.URL}})

	report, err := service.FetchAll(context.Background())
	require.NoError(t, err, "one healthy feed keeps ingestion going")

	assert.Equal(t, 2, report.Feeds)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, 1, report.Indexed)
	assert.Len(t, index.points, 1)
}

func TestServiceAllFeedsFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer bad.Close()

	service, _ := newTestService(t, map[string][]string{"world": {bad.URL}})

	_, err := service.FetchAll(context.Background())
	assert.Error(t, err)
}

func TestServiceReindex(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(serviceFeed))
	}))
	defer srv.Close()

	service, index := newTestService(t, map[string][]string{"world": {srv.URL}})

	_, err := service.FetchAll(context.Background())
	require.NoError(t, err)

	report, err := service.Reindex(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, index.cleared)
	assert.Equal(t, 1, report.Indexed)
	assert.Len(t, index.points, 1)
}
