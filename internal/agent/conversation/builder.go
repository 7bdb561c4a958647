package conversation

import (
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
)

// SegmentsToMessage 将画布内容段落转换为一条 user 消息。
// 空文本段落跳过；二进制段落编码为 data URL 图片块。
// 所有段落均为空时返回 nil。
func SegmentsToMessage(segments []types.Segment) *ptypes.Message {
	var parts []ptypes.ContentPart
	for _, seg := range segments {
		switch seg.Type {
		case types.SegmentText:
			if seg.IsEmptyText() {
				continue
			}
			parts = append(parts, ptypes.ContentPart{Type: "text", Text: seg.Content})
		case types.SegmentBinary:
			parts = append(parts, ptypes.ContentPart{
				Type: "image_url",
				ImageURL: &ptypes.ImageURL{
					URL: "data:" + seg.MimeType + ";base64," + seg.Content,
				},
			})
		}
	}
	if len(parts) == 0 {
		return nil
	}
	// 仅含单个文本块时退化为普通文本消息
	if len(parts) == 1 && parts[0].Type == "text" {
		return &ptypes.Message{Role: "user", Content: parts[0].Text}
	}
	return &ptypes.Message{Role: "user", Parts: parts}
}

// HistoryToMessages 将会话历史转换为模型消息序列
func HistoryToMessages(history []types.ChatTurn) []ptypes.Message {
	messages := make([]ptypes.Message, 0, len(history))
	for _, turn := range history {
		role := "user"
		if turn.Sender == types.SenderBot {
			role = "assistant"
		}
		messages = append(messages, ptypes.Message{Role: role, Content: turn.Text})
	}
	return messages
}

// AssistantTurn 将模型一轮回复还原为 assistant 消息，供下一轮调用携带
func AssistantTurn(turn *types.Turn) ptypes.Message {
	msg := ptypes.Message{Role: "assistant", Content: turn.Text}
	for _, tc := range turn.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, ptypes.ToolCall{
			ID:   tc.CallID,
			Type: "function",
			Function: ptypes.FunctionCall{
				Name:      tc.Name,
				Arguments: tc.Arguments,
			},
		})
	}
	return msg
}

// FoldToolResults 将工具执行结果按请求顺序折叠为 tool 消息。
// 每个请求恰好对应一条结果，全部结果在下一次模型调用前追加。
func FoldToolResults(results []types.ToolResult) []ptypes.Message {
	messages := make([]ptypes.Message, 0, len(results))
	for _, r := range results {
		messages = append(messages, ptypes.Message{
			Role:       "tool",
			Content:    string(r.Payload),
			ToolCallID: r.CallID,
		})
	}
	return messages
}
