package loop

import (
	"context"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/conversation"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/gateway"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
)

// ChatInput 一次画布问答的输入
type ChatInput struct {
	CanvasText    string           // 当前画布文本，作为上下文
	History       []types.ChatTurn // 既有会话
	UserMessage   string
	MemoryContext string
}

// RunChat 画布问答：单次模型调用，无工具，不进入代理循环。
// 返回完整回复文本与引用来源。
func (r *Runner) RunChat(ctx context.Context, input ChatInput) (*types.Turn, error) {
	messages := make([]ptypes.Message, 0, len(input.History)+2)
	if input.CanvasText != "" {
		messages = append(messages, ptypes.Message{
			Role:    "user",
			Content: "Current canvas content:\n\n" + input.CanvasText,
		})
	}
	messages = append(messages, conversation.HistoryToMessages(input.History)...)
	messages = append(messages, ptypes.Message{Role: "user", Content: input.UserMessage})

	return r.gw.Generate(ctx, gateway.Request{
		SystemInstruction: spliceMemory(chatSystemInstruction, input.MemoryContext),
		Messages:          messages,
		Temperature:       r.cfg.Temperature,
	})
}
