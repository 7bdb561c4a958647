package embedding

import "context"

// Embedder 文本向量化接口
type Embedder interface {
	// Embed 对单个文本生成向量
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimension 返回向量维度
	Dimension() int
}
