package tools

import (
	"context"
	"encoding/json"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"

	"go.uber.org/zap"
)

// Handler 单个工具的声明与执行逻辑
type Handler interface {
	// Name 工具名称，注册表内唯一
	Name() string

	// Declaration 向模型暴露的工具声明
	Declaration() ptypes.Tool

	// Execute 执行工具调用，args 为模型产出的原始 JSON 参数。
	// 返回的错误会被注册表折叠为 {"error": ...} 负载。
	Execute(ctx context.Context, args string) (json.RawMessage, error)
}

// Registry 工具注册表。工具执行失败不是致命错误，
// 失败以 {"error": ...} 负载回传模型，运行继续。
type Registry struct {
	handlers map[string]Handler
	order    []string
}

// NewRegistry 创建工具注册表
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register 注册工具，重名覆盖
func (r *Registry) Register(h Handler) {
	if _, ok := r.handlers[h.Name()]; !ok {
		r.order = append(r.order, h.Name())
	}
	r.handlers[h.Name()] = h
}

// Declarations 返回全部工具声明，顺序与注册顺序一致
func (r *Registry) Declarations() []ptypes.Tool {
	decls := make([]ptypes.Tool, 0, len(r.order))
	for _, name := range r.order {
		decls = append(decls, r.handlers[name].Declaration())
	}
	return decls
}

// Execute 执行一次工具调用，永不返回错误。
// 未注册的工具与执行失败均转化为 error 负载。
func (r *Registry) Execute(ctx context.Context, call types.ToolCallRequest) types.ToolResult {
	result := types.ToolResult{CallID: call.CallID, Name: call.Name}

	h, ok := r.handlers[call.Name]
	if !ok {
		logger.L().Warn("tool not registered", zap.String("tool", call.Name))
		result.Payload = types.ErrorPayload("tool " + call.Name + " is not implemented")
		return result
	}

	payload, err := h.Execute(ctx, call.Arguments)
	if err != nil {
		logger.L().Warn("tool execution failed",
			zap.String("tool", call.Name),
			zap.Error(err))
		result.Payload = types.ErrorPayload(err.Error())
		return result
	}
	result.Payload = payload
	return result
}

// ExecuteAll 按请求顺序依次执行全部工具调用
func (r *Registry) ExecuteAll(ctx context.Context, calls []types.ToolCallRequest) []types.ToolResult {
	results := make([]types.ToolResult, 0, len(calls))
	for _, call := range calls {
		results = append(results, r.Execute(ctx, call))
	}
	return results
}
