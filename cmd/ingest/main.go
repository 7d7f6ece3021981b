// Package main 新闻摄取 CLI 入口
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"newsrag-api/internal/application/ingest"
	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/config"
	"newsrag-api/internal/infrastructure/embedding"
	"newsrag-api/internal/infrastructure/persistence/milvus"
	"newsrag-api/internal/infrastructure/persistence/redis"
	"newsrag-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "News ingestion and index administration",
	Long: `Fetches configured RSS feeds, validates and indexes articles
into the vector store, and manages the index lifecycle.`,
	SilenceUsage: true,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [category]",
	Short: "Fetch feeds and index articles",
	Long: `Fetches configured RSS feeds and indexes validated articles.
If a category is provided, only that category's feeds are fetched.
Otherwise, all configured categories are fetched.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFetch,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Clear the index and refetch all feeds",
	RunE:  runReindex,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drop and recreate the vector collection",
	RunE:  runClear,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(fetchCmd, reindexCmd, clearCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup 构建摄取服务及其依赖；返回的 cleanup 负责释放连接
func setup(ctx context.Context) (*ingest.Service, func(), error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)

	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init milvus: %w", err)
	}

	var backend rag.EmbeddingBackend
	switch cfg.Embedding.Backend {
	case "synthetic":
		backend = embedding.NewSyntheticBackend(cfg.Embedding.Dimension)
	default:
		backend, err = embedding.NewRemoteBackend(&cfg.Embedding)
		if err != nil {
			_ = milvusClient.Close()
			return nil, nil, fmt.Errorf("failed to init embedding backend: %w", err)
		}
	}

	embedder := rag.NewEmbedder(backend, cfg.Embedding.MaxInputRunes, cfg.Embedding.ChunkDelay)
	index := milvus.NewIndex(milvusClient, cfg.Embedding.Dimension)
	extractor := rag.NewExtractor(cfg.Retrieval.MinSentenceRunes, cfg.Retrieval.FallbackRunes)
	// CLI 不做问答，生成模型为空实现
	generator := rag.NewAnswerGenerator(nil)
	pipeline := rag.NewPipeline(embedder, index, extractor, generator, cfg.Retrieval.TopK, cfg.Retrieval.ScoreThreshold)

	fetcher := ingest.NewFetcher(cfg.Ingest.Timeout, cfg.Ingest.UserAgent)
	strategies := ingest.NewStrategySet(cfg.Ingest.Feeds)

	// Redis 可选：不可用时跳过统计缓存失效
	var cache *redis.Cache
	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Warn(ctx, "redis unavailable, stats cache invalidation disabled", "error", err)
	} else {
		cache = redis.NewCache(redisClient)
	}

	cleanup := func() {
		_ = milvusClient.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	var invalidator interface {
		InvalidateStats(ctx context.Context) error
	}
	if cache != nil {
		invalidator = cache
	}
	return ingest.NewService(fetcher, pipeline, index, strategies, invalidator), cleanup, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	service, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	var report *ingest.Report
	if len(args) > 0 {
		cmd.Printf("Fetching category %q...\n", args[0])
		report, err = service.FetchCategory(ctx, args[0])
	} else {
		cmd.Println("Fetching all categories...")
		report, err = service.FetchAll(ctx)
	}
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	service, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	cmd.Println("Clearing index and refetching all feeds...")
	report, err := service.Reindex(ctx)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	return nil
}

func runClear(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	service, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := service.Clear(ctx); err != nil {
		return fmt.Errorf("clear failed: %w", err)
	}
	cmd.Println("Index cleared.")
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	service, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := service.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats failed: %w", err)
	}

	cmd.Printf("Documents:   %d\n", stats.Count)
	cmd.Printf("Dimension:   %d\n", stats.Dimension)
	cmd.Printf("Metric type: %s\n", stats.MetricType)
	cmd.Printf("Status:      %s\n", stats.Status)
	return nil
}

func printReport(cmd *cobra.Command, report *ingest.Report) {
	cmd.Printf("Feeds:    %d (%d failed)\n", report.Feeds, report.Failed)
	cmd.Printf("Fetched:  %d\n", report.Fetched)
	cmd.Printf("Rejected: %d\n", report.Rejected)
	cmd.Printf("Indexed:  %d\n", report.Indexed)
}
