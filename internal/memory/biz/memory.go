package biz

import (
	"context"
	"strings"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/memory/data"
	"github.com/lk2023060901/ai-canvas-backend/internal/memory/embedding"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

const (
	// DefaultTopK 检索返回的最大条数
	DefaultTopK = 3
	// DefaultScoreThreshold 低于该相似度的结果丢弃
	DefaultScoreThreshold = 0.75

	contextSeparator = "\n---\n"
	rememberTimeout  = 30 * time.Second
)

// Store 记忆向量存储接口
type Store interface {
	Insert(ctx context.Context, content string, vector []float32) (string, error)
	Search(ctx context.Context, vector []float32, topK int) ([]data.Memory, error)
}

// Config 记忆子系统配置
type Config struct {
	TopK           int
	ScoreThreshold float32
	Workers        int
}

// UseCase 长期记忆：写入异步执行，检索同步返回拼接上下文
type UseCase struct {
	store    Store
	embedder embedding.Embedder
	pool     *ants.Pool
	cfg      Config
	logger   *logger.Logger
}

// NewUseCase 创建记忆用例
func NewUseCase(store Store, embedder embedding.Embedder, cfg Config) (*UseCase, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = DefaultScoreThreshold
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithNonblocking(false))
	if err != nil {
		return nil, err
	}
	return &UseCase{
		store:    store,
		embedder: embedder,
		pool:     pool,
		cfg:      cfg,
		logger:   logger.L(),
	}, nil
}

// Remember 异步写入一条记忆。写入失败只记日志，
// 不影响提交方的请求路径。
func (uc *UseCase) Remember(content string) {
	content = strings.TrimSpace(content)
	if content == "" {
		return
	}
	err := uc.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), rememberTimeout)
		defer cancel()

		vector, err := uc.embedder.Embed(ctx, content)
		if err != nil {
			uc.logger.Error("memory embed failed", zap.Error(err))
			return
		}
		id, err := uc.store.Insert(ctx, content, vector)
		if err != nil {
			uc.logger.Error("memory insert failed", zap.Error(err))
			return
		}
		uc.logger.Debug("memory stored", zap.String("id", id))
	})
	if err != nil {
		uc.logger.Warn("memory submit failed", zap.Error(err))
	}
}

// Recall 按查询文本检索相关记忆，过滤低于阈值的结果
func (uc *UseCase) Recall(ctx context.Context, query string) ([]data.Memory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	vector, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	memories, err := uc.store.Search(ctx, vector, uc.cfg.TopK)
	if err != nil {
		return nil, err
	}

	filtered := memories[:0]
	for _, m := range memories {
		if m.Score >= uc.cfg.ScoreThreshold {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

// BuildContext 检索并拼接记忆上下文，供系统指令注入。
// 检索失败返回空串，记忆不可用不阻断运行。
func (uc *UseCase) BuildContext(ctx context.Context, query string) string {
	memories, err := uc.Recall(ctx, query)
	if err != nil {
		uc.logger.Warn("memory recall failed", zap.Error(err))
		return ""
	}
	if len(memories) == 0 {
		return ""
	}

	contents := make([]string, 0, len(memories))
	for _, m := range memories {
		contents = append(contents, m.Content)
	}
	return strings.Join(contents, contextSeparator)
}

// Close 关闭工作池，等待排队中的写入提交完成
func (uc *UseCase) Close() {
	uc.pool.Release()
}
