package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/redis"

	"go.uber.org/zap"
)

const (
	defaultCacheTTL    = 24 * time.Hour
	defaultCachePrefix = "memory:embedding:"
)

// CacheEmbedder 带 Redis 缓存的 Embedder 装饰器。
// 同一文本重复向量化直接命中缓存，降低 API 开销。
type CacheEmbedder struct {
	embedder Embedder
	cache    *redis.Client
	ttl      time.Duration
	prefix   string
	logger   *logger.Logger
}

// NewCacheEmbedder 创建带缓存的 Embedder，cache 为 nil 时退化为直通
func NewCacheEmbedder(embedder Embedder, cache *redis.Client, ttl time.Duration) *CacheEmbedder {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CacheEmbedder{
		embedder: embedder,
		cache:    cache,
		ttl:      ttl,
		prefix:   defaultCachePrefix,
		logger:   logger.L(),
	}
}

// Embed 对单个文本生成向量（带缓存）
func (e *CacheEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := e.cacheKey(text)

	if e.cache != nil {
		if data, err := e.cache.Get(ctx, key); err == nil {
			var cached []float32
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
		} else if !errors.Is(err, redis.ErrCacheMiss) {
			e.logger.Warn("embedding cache read failed", zap.Error(err))
		}
	}

	vector, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if data, err := json.Marshal(vector); err == nil {
			if err := e.cache.Set(ctx, key, data, e.ttl); err != nil {
				e.logger.Warn("embedding cache write failed", zap.Error(err))
			}
		}
	}
	return vector, nil
}

// Dimension 返回向量维度
func (e *CacheEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

func (e *CacheEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return e.prefix + hex.EncodeToString(hash[:])
}
