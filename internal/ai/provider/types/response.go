package types

// StopReason 停止原因
type StopReason string

const (
	StopReasonStop      StopReason = "stop"       // 自然停止
	StopReasonMaxTokens StopReason = "length"     // 达到 token 限制
	StopReasonToolCalls StopReason = "tool_calls" // 工具调用
)

// ChatCompletionResponse 聊天补全响应（OpenAI 标准格式）
type ChatCompletionResponse struct {
	ID        string   `json:"id"`
	Object    string   `json:"object"`
	Created   int64    `json:"created"`
	Model     string   `json:"model"`
	Choices   []Choice `json:"choices"`
	Usage     Usage    `json:"usage"`
	Citations []string `json:"citations,omitempty"` // 检索增强服务商返回的引用来源
}

// Choice 选择项
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage Token 使用统计
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// StreamChunk 流式响应块
type StreamChunk struct {
	ID        string         `json:"id"`
	Object    string         `json:"object"`
	Created   int64          `json:"created"`
	Model     string         `json:"model"`
	Choices   []StreamChoice `json:"choices"`
	Citations []string       `json:"citations,omitempty"`
	Usage     *Usage         `json:"usage,omitempty"`
	Done      bool           `json:"-"` // 流结束标记
	Error     error          `json:"-"` // 传输层错误（不序列化）
}

// StreamChoice 流式选择项
type StreamChoice struct {
	Index        int          `json:"index"`
	Delta        MessageDelta `json:"delta"`
	FinishReason *string      `json:"finish_reason"`
}

// MessageDelta 消息增量（流式）
type MessageDelta struct {
	Role      string          `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta 工具调用增量；同一 Index 的分片按顺序拼接 Arguments
type ToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Function struct {
		Name      string `json:"name,omitempty"`
		Arguments string `json:"arguments,omitempty"`
	} `json:"function"`
}
