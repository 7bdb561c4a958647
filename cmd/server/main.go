package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/gateway"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/loop"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/tools"
	"github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/openai"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/attachment"
	canvasbiz "github.com/lk2023060901/ai-canvas-backend/internal/canvas/biz"
	canvasdata "github.com/lk2023060901/ai-canvas-backend/internal/canvas/data"
	canvasservice "github.com/lk2023060901/ai-canvas-backend/internal/canvas/service"
	"github.com/lk2023060901/ai-canvas-backend/internal/conf"
	memorybiz "github.com/lk2023060901/ai-canvas-backend/internal/memory/biz"
	memorydata "github.com/lk2023060901/ai-canvas-backend/internal/memory/data"
	"github.com/lk2023060901/ai-canvas-backend/internal/memory/embedding"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/database"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/httpclient"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/milvus"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/redis"
	"github.com/lk2023060901/ai-canvas-backend/internal/server"
	"github.com/lk2023060901/ai-canvas-backend/internal/webfetch"
	"github.com/lk2023060901/ai-canvas-backend/internal/websearch"

	"go.uber.org/zap"
)

var configFile = flag.String("config", "config.yaml", "config file path")

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}
	if err := logger.InitGlobal(logConfig); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	log := logger.L()
	defer log.Sync()

	log.Info("config loaded successfully")

	ctx := context.Background()

	// 数据库
	db, err := database.New(&database.Config{DSN: config.Database.DSN()}, log)
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	canvasRepo := canvasdata.NewCanvasRepo(db.GetDB())
	if err := canvasRepo.Migrate(); err != nil {
		log.Fatal("failed to migrate database", zap.Error(err))
	}

	// 模型网关
	provider, err := openai.New(&ptypes.Config{
		APIKey:  config.AI.APIKey,
		BaseURL: config.AI.BaseURL,
		Model:   config.AI.Model,
		Timeout: config.AI.Timeout,
	})
	if err != nil {
		log.Fatal("failed to create model provider", zap.Error(err))
	}
	defer provider.Close()
	gw := gateway.New(provider, config.AI.Model)

	// 画布业务
	canvasUseCase := canvasbiz.NewCanvasUseCase(canvasRepo, config.Canvas.SaveDebounce)
	defer canvasUseCase.Flush()

	// 工具
	fetcher, err := webfetch.New(httpclient.New(config.WebFetch.Timeout), webfetch.Config{
		MaxTokens: config.WebFetch.MaxTokens,
	})
	if err != nil {
		log.Fatal("failed to create web fetcher", zap.Error(err))
	}
	registry := tools.NewRegistry(
		tools.NewWebFetchTool(fetcher),
		tools.NewCanvasTool(canvasUseCase),
	)

	// 网络搜索可选，未配置服务商时仅注册抓取与建档工具
	if config.WebSearch.Provider != "" {
		searchProvider, err := websearch.New(websearch.Config{
			Provider:   config.WebSearch.Provider,
			APIHost:    config.WebSearch.APIHost,
			APIKey:     config.WebSearch.APIKey,
			Timeout:    config.WebSearch.Timeout,
			MaxResults: config.WebSearch.MaxResults,
		})
		if err != nil {
			log.Fatal("failed to create search provider", zap.Error(err))
		}
		registry.Register(tools.NewWebSearchTool(searchProvider))
	}

	runner := loop.NewRunner(gw, registry, loop.Config{
		MaxIterations: config.Agent.MaxIterations,
		Temperature:   config.AI.Temperature,
	})

	// 长期记忆，依赖缺失时降级关闭
	memoryUseCase, memoryCleanup := setupMemory(ctx, config, log)
	if memoryUseCase != nil {
		defer memoryCleanup()
		defer memoryUseCase.Close()
	}

	// 附件存储
	var attachments *attachment.Store
	if config.MinIO.Endpoint != "" {
		attachments, err = attachment.NewStore(ctx, &attachment.Config{
			Endpoint:  config.MinIO.Endpoint,
			AccessKey: config.MinIO.AccessKey,
			SecretKey: config.MinIO.SecretKey,
			UseSSL:    config.MinIO.UseSSL,
			Bucket:    config.MinIO.Bucket,
		})
		if err != nil {
			log.Warn("attachment store unavailable", zap.Error(err))
		}
	}

	canvasService := canvasservice.NewService(canvasUseCase, runner, memoryUseCase, attachments)
	httpServer := server.NewHTTPServer(config, log, canvasService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()
	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}

// setupMemory 初始化记忆子系统；Milvus 或嵌入服务不可用时返回 nil。
// 第二个返回值在退出时关闭记忆子系统持有的客户端连接。
func setupMemory(ctx context.Context, config *conf.Config, log *logger.Logger) (*memorybiz.UseCase, func()) {
	if config.Milvus.Address == "" || config.AI.APIKey == "" {
		log.Warn("memory subsystem disabled: milvus or embedding not configured")
		return nil, nil
	}

	milvusClient, err := milvus.New(ctx, &milvus.Config{
		Address:  config.Milvus.Address,
		Database: config.Milvus.Database,
	}, log)
	if err != nil {
		log.Warn("memory subsystem disabled: milvus unavailable", zap.Error(err))
		return nil, nil
	}
	closeMilvus := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := milvusClient.Close(closeCtx); err != nil {
			log.Warn("failed to close milvus client", zap.Error(err))
		}
	}

	store := memorydata.NewMilvusStore(milvusClient, config.Milvus.Collection, config.Memory.EmbeddingDimension)
	if err := store.EnsureCollection(ctx); err != nil {
		log.Warn("memory subsystem disabled: collection setup failed", zap.Error(err))
		closeMilvus()
		return nil, nil
	}

	embedder, err := embedding.NewOpenAIEmbedder(&embedding.OpenAIEmbedderConfig{
		APIKey:    config.AI.APIKey,
		BaseURL:   config.AI.BaseURL,
		Model:     config.Memory.EmbeddingModel,
		Dimension: config.Memory.EmbeddingDimension,
	})
	if err != nil {
		log.Warn("memory subsystem disabled: embedder setup failed", zap.Error(err))
		closeMilvus()
		return nil, nil
	}

	// 嵌入缓存可选，Redis 不可用时直连嵌入服务
	var cached embedding.Embedder = embedder
	var redisClient *redis.Client
	if config.Redis.Host != "" {
		redisClient, err = redis.New(ctx, &redis.Config{
			Addr:     config.Redis.Addr(),
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		}, log)
		if err != nil {
			log.Warn("embedding cache disabled: redis unavailable", zap.Error(err))
			redisClient = nil
		} else {
			cached = embedding.NewCacheEmbedder(embedder, redisClient, config.Memory.CacheTTL)
		}
	}

	cleanup := func() {
		if redisClient != nil {
			if err := redisClient.Close(); err != nil {
				log.Warn("failed to close redis client", zap.Error(err))
			}
		}
		closeMilvus()
	}

	uc, err := memorybiz.NewUseCase(store, cached, memorybiz.Config{
		TopK:           config.Memory.TopK,
		ScoreThreshold: config.Memory.ScoreThreshold,
		Workers:        config.Memory.Workers,
	})
	if err != nil {
		log.Warn("memory subsystem disabled", zap.Error(err))
		cleanup()
		return nil, nil
	}
	return uc, cleanup
}
