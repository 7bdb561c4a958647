package milvus

import (
	"context"
	"fmt"

	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
	"go.uber.org/zap"
)

// Client Milvus 客户端封装
type Client struct {
	cfg    *Config
	client *milvusclient.Client
	logger *logger.Logger
}

// New 创建新的 Milvus 客户端
func New(ctx context.Context, cfg *Config, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid milvus configuration: %w", err)
	}
	cfg.SetDefaults()

	if log == nil {
		log = logger.L()
	}

	clientCfg := &milvusclient.ClientConfig{
		Address: cfg.Address,
		DBName:  cfg.Database,
	}
	if cfg.Username != "" && cfg.Password != "" {
		clientCfg.Username = cfg.Username
		clientCfg.Password = cfg.Password
	}

	dialCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()

	client, err := milvusclient.New(dialCtx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	log.Info("milvus client created",
		zap.String("address", cfg.Address),
		zap.String("database", cfg.Database))

	return &Client{
		cfg:    cfg,
		client: client,
		logger: log,
	}, nil
}

// Close 关闭客户端连接
func (c *Client) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Close(ctx)
}

// HasCollection 检查 Collection 是否存在
func (c *Client) HasCollection(ctx context.Context, name string) (bool, error) {
	exists, err := c.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return false, fmt.Errorf("failed to check collection %s: %w", name, err)
	}
	return exists, nil
}

// CreateCollection 创建 Collection 并建立向量索引，加载到内存
func (c *Client) CreateCollection(ctx context.Context, schema *entity.Schema, vectorField string) error {
	err := c.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(schema.CollectionName, schema))
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", schema.CollectionName, err)
	}

	// 内积度量，向量需归一化
	idx := index.NewHNSWIndex(entity.IP, 16, 200)
	task, err := c.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(schema.CollectionName, vectorField, idx))
	if err != nil {
		return fmt.Errorf("failed to create index on %s: %w", vectorField, err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for index: %w", err)
	}

	loadTask, err := c.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(schema.CollectionName))
	if err != nil {
		return fmt.Errorf("failed to load collection %s: %w", schema.CollectionName, err)
	}
	if err := loadTask.Await(ctx); err != nil {
		return fmt.Errorf("failed to wait for collection load: %w", err)
	}

	c.logger.Info("milvus collection created",
		zap.String("collection", schema.CollectionName))
	return nil
}

// Insert 插入数据
func (c *Client) Insert(ctx context.Context, collection string, cols ...column.Column) error {
	_, err := c.client.Insert(ctx, milvusclient.NewColumnBasedInsertOption(collection, cols...))
	if err != nil {
		c.logger.Error("failed to insert data",
			zap.String("collection", collection),
			zap.Error(err))
		return fmt.Errorf("failed to insert into %s: %w", collection, err)
	}
	return nil
}

// Search 向量搜索，返回原始结果集
func (c *Client) Search(ctx context.Context, collection string, vector []float32, vectorField string, topK int, outputFields ...string) ([]milvusclient.ResultSet, error) {
	opt := milvusclient.NewSearchOption(collection, topK, []entity.Vector{entity.FloatVector(vector)}).
		WithANNSField(vectorField).
		WithOutputFields(outputFields...)

	results, err := c.client.Search(ctx, opt)
	if err != nil {
		c.logger.Error("failed to search",
			zap.String("collection", collection),
			zap.Error(err))
		return nil, fmt.Errorf("failed to search %s: %w", collection, err)
	}
	return results, nil
}
