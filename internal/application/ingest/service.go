package ingest

import (
	"context"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/errors"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/metrics"
)

// statsInvalidator 摄取后使统计缓存失效；可为 nil（CLI 无缓存场景）
type statsInvalidator interface {
	InvalidateStats(ctx context.Context) error
}

// Service 摄取服务：抓取、校验、喂给索引管线
type Service struct {
	fetcher    *Fetcher
	pipeline   *rag.Pipeline
	index      rag.VectorIndex
	strategies *StrategySet
	cache      statsInvalidator
}

// NewService 创建摄取服务
func NewService(fetcher *Fetcher, pipeline *rag.Pipeline, index rag.VectorIndex, strategies *StrategySet, cache statsInvalidator) *Service {
	return &Service{
		fetcher:    fetcher,
		pipeline:   pipeline,
		index:      index,
		strategies: strategies,
		cache:      cache,
	}
}

// Report 一次摄取的汇总
type Report struct {
	Fetched  int `json:"fetched"`
	Rejected int `json:"rejected"`
	Indexed  int `json:"indexed"`
	Feeds    int `json:"feeds"`
	Failed   int `json:"failed_feeds"`
}

// FetchCategory 抓取并索引单个分类
func (s *Service) FetchCategory(ctx context.Context, category string) (*Report, error) {
	strategy, err := s.strategies.Get(category)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, []Strategy{strategy})
}

// FetchAll 抓取并索引全部配置分类
func (s *Service) FetchAll(ctx context.Context) (*Report, error) {
	var all []Strategy
	for _, category := range s.strategies.Categories() {
		strategy, _ := s.strategies.Get(category)
		all = append(all, strategy)
	}
	return s.run(ctx, all)
}

// run 逐源抓取；单源失败记录后继续，全部源失败才算摄取失败
func (s *Service) run(ctx context.Context, strategies []Strategy) (*Report, error) {
	report := &Report{}
	var documents []*entity.Document

	for _, strategy := range strategies {
		for _, feedURL := range strategy.FeedURLs {
			report.Feeds++

			docs, err := s.fetcher.Fetch(ctx, feedURL, strategy.Category)
			if err != nil {
				report.Failed++
				logger.Warn(ctx, "feed fetch failed, continuing",
					"feed_url", feedURL,
					"category", strategy.Category,
					"error", err,
				)
				continue
			}

			for _, doc := range docs {
				report.Fetched++
				metrics.IngestDocumentsTotal.WithLabelValues("fetched").Inc()

				if err := ValidateDocument(doc); err != nil {
					report.Rejected++
					metrics.IngestDocumentsTotal.WithLabelValues("rejected").Inc()
					logger.Debug(ctx, "document rejected", "url", doc.URL, "reason", err)
					continue
				}
				documents = append(documents, doc)
			}
		}
	}

	if report.Feeds > 0 && report.Failed == report.Feeds {
		return report, errors.New(errors.CodeIngestionFailed, "all feeds failed")
	}

	if len(documents) > 0 {
		indexed, err := s.pipeline.Index(ctx, documents)
		report.Indexed = indexed
		metrics.IngestDocumentsTotal.WithLabelValues("indexed").Add(float64(indexed))
		if err != nil {
			return report, err
		}
	}

	s.invalidateStats(ctx)

	logger.Info(ctx, "ingestion completed",
		"feeds", report.Feeds,
		"failed_feeds", report.Failed,
		"fetched", report.Fetched,
		"rejected", report.Rejected,
		"indexed", report.Indexed,
	)
	return report, nil
}

// Reindex 清空索引后全量重抓
func (s *Service) Reindex(ctx context.Context) (*Report, error) {
	if err := s.Clear(ctx); err != nil {
		return nil, err
	}
	return s.FetchAll(ctx)
}

// Clear 清空向量索引
func (s *Service) Clear(ctx context.Context) error {
	if err := s.index.Clear(ctx); err != nil {
		return errors.Wrap(err, errors.CodeVectorDBError, "failed to clear index")
	}
	s.invalidateStats(ctx)
	return nil
}

// Stats 返回索引统计
func (s *Service) Stats(ctx context.Context) (*entity.IndexStats, error) {
	return s.pipeline.Stats(ctx)
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateStats(ctx); err != nil {
		logger.Warn(ctx, "failed to invalidate stats cache", "error", err)
	}
}
