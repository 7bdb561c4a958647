package types

import "encoding/json"

// ChatCompletionRequest 聊天补全请求（OpenAI 标准格式）
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	TopP        float64   `json:"top_p,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Tools       []Tool    `json:"tools,omitempty"`
}

// Tool 向模型声明的可调用工具
type Tool struct {
	Type     string       `json:"type"` // 固定为 "function"
	Function ToolFunction `json:"function"`
}

// ToolFunction 工具声明（名称、描述、JSON Schema 参数）
type ToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
}

// Message 消息结构（用于请求和响应）
type Message struct {
	Role       string        `json:"role"`              // system, user, assistant, tool
	Content    string        `json:"content,omitempty"` // 简单文本内容
	Parts      []ContentPart `json:"-"`                 // 多模态内容（序列化时优先于 Content）
	ToolCalls  []ToolCall    `json:"tool_calls,omitempty"`   // assistant 消息携带的工具调用
	ToolCallID string        `json:"tool_call_id,omitempty"` // tool 消息对应的调用 ID
}

// ContentPart 多模态内容块
type ContentPart struct {
	Type     string    `json:"type"` // text, image_url
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL 图片内容（data URL 或外部 URL）
type ImageURL struct {
	URL string `json:"url"`
}

// ToolCall 模型发起的一次工具调用
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // 固定为 "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall 工具调用的名称与参数（参数为 JSON 字符串）
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// MarshalJSON 当存在多模态内容时，content 序列化为内容块数组
func (m Message) MarshalJSON() ([]byte, error) {
	type alias Message
	if len(m.Parts) == 0 {
		return json.Marshal(alias(m))
	}

	return json.Marshal(struct {
		alias
		Content []ContentPart `json:"content"`
	}{
		alias:   alias(m),
		Content: m.Parts,
	})
}
