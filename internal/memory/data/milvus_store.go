package data

import (
	"context"
	"fmt"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/milvus"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/entity"
	"go.uber.org/zap"
)

const (
	fieldID        = "id"
	fieldContent   = "content"
	fieldCreatedAt = "created_at"
	fieldEmbedding = "embedding"

	maxContentLength = 8192
)

// Memory 一条已存储的记忆
type Memory struct {
	ID        string
	Content   string
	Score     float32
	CreatedAt time.Time
}

// MilvusStore 基于 Milvus 的记忆向量存储
type MilvusStore struct {
	client     *milvus.Client
	collection string
	dimension  int
	logger     *logger.Logger
}

// NewMilvusStore 创建记忆存储
func NewMilvusStore(client *milvus.Client, collection string, dimension int) *MilvusStore {
	return &MilvusStore{
		client:     client,
		collection: collection,
		dimension:  dimension,
		logger:     logger.L(),
	}
}

// EnsureCollection 确保 Collection 存在，不存在则创建并建索引
func (s *MilvusStore) EnsureCollection(ctx context.Context) error {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	schema := entity.NewSchema().
		WithName(s.collection).
		WithDescription("long-term memory for canvas sessions").
		WithField(entity.NewField().
			WithName(fieldID).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(64).
			WithIsPrimaryKey(true)).
		WithField(entity.NewField().
			WithName(fieldContent).
			WithDataType(entity.FieldTypeVarChar).
			WithMaxLength(maxContentLength)).
		WithField(entity.NewField().
			WithName(fieldCreatedAt).
			WithDataType(entity.FieldTypeInt64)).
		WithField(entity.NewField().
			WithName(fieldEmbedding).
			WithDataType(entity.FieldTypeFloatVector).
			WithDim(int64(s.dimension)))

	return s.client.CreateCollection(ctx, schema, fieldEmbedding)
}

// Insert 写入一条记忆，返回生成的 ID
func (s *MilvusStore) Insert(ctx context.Context, content string, vector []float32) (string, error) {
	if len(vector) != s.dimension {
		return "", fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(vector), s.dimension)
	}
	if len(content) > maxContentLength {
		content = content[:maxContentLength]
	}

	id := uuid.NewString()
	err := s.client.Insert(ctx, s.collection,
		column.NewColumnVarChar(fieldID, []string{id}),
		column.NewColumnVarChar(fieldContent, []string{content}),
		column.NewColumnInt64(fieldCreatedAt, []int64{time.Now().Unix()}),
		column.NewColumnFloatVector(fieldEmbedding, s.dimension, [][]float32{vector}),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Search 按向量检索记忆，按得分降序返回
func (s *MilvusStore) Search(ctx context.Context, vector []float32, topK int) ([]Memory, error) {
	results, err := s.client.Search(ctx, s.collection, vector, fieldEmbedding, topK,
		fieldContent, fieldCreatedAt)
	if err != nil {
		return nil, err
	}

	var memories []Memory
	for _, rs := range results {
		contentCol := rs.GetColumn(fieldContent)
		createdCol := rs.GetColumn(fieldCreatedAt)
		for i := 0; i < rs.ResultCount; i++ {
			m := Memory{Score: rs.Scores[i]}
			if rs.IDs != nil {
				if id, err := rs.IDs.GetAsString(i); err == nil {
					m.ID = id
				}
			}
			if contentCol != nil {
				if content, err := contentCol.GetAsString(i); err == nil {
					m.Content = content
				}
			}
			if createdCol != nil {
				if ts, err := createdCol.GetAsInt64(i); err == nil {
					m.CreatedAt = time.Unix(ts, 0)
				}
			}
			memories = append(memories, m)
		}
	}

	s.logger.Debug("memory search completed",
		zap.Int("top_k", topK),
		zap.Int("hits", len(memories)))
	return memories, nil
}
