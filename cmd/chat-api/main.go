// Package main 新闻问答 API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsrag-api/internal/application/rag"
	"newsrag-api/internal/config"
	"newsrag-api/internal/infrastructure/embedding"
	"newsrag-api/internal/infrastructure/generation"
	"newsrag-api/internal/infrastructure/persistence/milvus"
	"newsrag-api/internal/infrastructure/persistence/redis"
	"newsrag-api/internal/interfaces/http/handler"
	"newsrag-api/internal/interfaces/http/router"
	"newsrag-api/pkg/logger"
	"newsrag-api/pkg/tracer"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting chat-api",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 基础设施客户端
	milvusClient, err := milvus.NewClient(ctx, &cfg.Vector.Milvus)
	if err != nil {
		logger.Fatal(ctx, "failed to init milvus", err)
	}
	defer func() { _ = milvusClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	// Embedding 后端：构造期一次性选定，不做运行时切换
	backend, err := newEmbeddingBackend(cfg)
	if err != nil {
		logger.Fatal(ctx, "failed to init embedding backend", err)
	}
	log.Info("embedding backend selected", "backend", backend.Name(), "dimension", backend.Dimension())

	// 生成模型
	model, err := generation.NewGeminiModel(ctx, &cfg.Generation)
	if err != nil {
		logger.Fatal(ctx, "failed to init generation model", err)
	}

	// 问答管线
	embedder := rag.NewEmbedder(backend, cfg.Embedding.MaxInputRunes, cfg.Embedding.ChunkDelay)
	index := milvus.NewIndex(milvusClient, cfg.Embedding.Dimension)
	extractor := rag.NewExtractor(cfg.Retrieval.MinSentenceRunes, cfg.Retrieval.FallbackRunes)
	generator := rag.NewAnswerGenerator(model)
	pipeline := rag.NewPipeline(embedder, index, extractor, generator, cfg.Retrieval.TopK, cfg.Retrieval.ScoreThreshold)

	// 启动时确保集合存在；失败不阻塞启动，问答会退化为空上下文
	if err := index.EnsureCollection(ctx); err != nil {
		log.Warn("failed to ensure collection at startup", "error", err)
	}

	// 会话与缓存
	sessions := redis.NewSessionRepository(redisClient, cfg.Session.TTL)
	cache := redis.NewCache(redisClient)
	limiter := redis.NewRateLimiter(redisClient)

	// HTTP 路由
	r := router.New(cfg, router.Handlers{
		Chat:    handler.NewChatHandler(pipeline, sessions, cfg.Session.MaxMessages),
		Session: handler.NewSessionHandler(sessions),
		Stats:   handler.NewStatsHandler(pipeline, cache),
		Health:  handler.NewHealthHandler(pipeline, redisClient, milvusClient),
	}, limiter)

	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}

// newEmbeddingBackend 按配置选择 Embedding 实现
func newEmbeddingBackend(cfg *config.Config) (rag.EmbeddingBackend, error) {
	switch cfg.Embedding.Backend {
	case "synthetic":
		return embedding.NewSyntheticBackend(cfg.Embedding.Dimension), nil
	case "remote", "":
		return embedding.NewRemoteBackend(&cfg.Embedding)
	default:
		return nil, fmt.Errorf("unknown embedding backend: %s", cfg.Embedding.Backend)
	}
}
