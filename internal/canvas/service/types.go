package service

import (
	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
)

// CreateCanvasRequest 新建画布请求
type CreateCanvasRequest struct {
	Name    string               `json:"name" binding:"required"`
	Content []agenttypes.Segment `json:"content"`
}

// UpdateCanvasRequest 部分更新请求，缺省字段不变
type UpdateCanvasRequest struct {
	Name        *string                `json:"name"`
	Content     *[]agenttypes.Segment  `json:"content"`
	Output      *string                `json:"output"`
	ChatHistory *[]agenttypes.ChatTurn `json:"chat_history"`
}

// ChatRequest 画布问答请求
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// ChatResponse 画布问答响应
type ChatResponse struct {
	Reply   string                `json:"reply"`
	Sources []agenttypes.Source   `json:"sources,omitempty"`
	History []agenttypes.ChatTurn `json:"history"`
}

// InlineRequest 行内操作请求。操作对象是指定文本段中
// [Start, End) 区间的内容，偏移以字节计。
type InlineRequest struct {
	Action       string `json:"action" binding:"required"`
	SegmentIndex int    `json:"segment_index"`
	Start        int    `json:"start"`
	End          int    `json:"end"`
}

// InlineResponse 行内操作响应。rewrite/continue 返回更新后的段落，
// explain 返回解释文本并追加到会话历史。
type InlineResponse struct {
	Action      string               `json:"action"`
	Result      string               `json:"result"`
	Content     []agenttypes.Segment `json:"content,omitempty"`
	Explanation string               `json:"explanation,omitempty"`
}

// TaskLogResponse 任务日志渲染结果
type TaskLogResponse struct {
	Entries  []agenttypes.TaskLogEntry `json:"entries"`
	Markdown string                    `json:"markdown"`
	HTML     string                    `json:"html"`
}
