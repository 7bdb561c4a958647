package types

import (
	"time"

	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
)

// Canvas 画布文档：用户编辑的内容段落、最近一次 AI 产出
// 与运行轨迹、围绕画布的会话历史
type Canvas struct {
	ID            string                     `json:"id"`
	Name          string                     `json:"name"`
	Content       []agenttypes.Segment       `json:"content"`
	Output        string                     `json:"output"`
	OutputSources []agenttypes.Source        `json:"output_sources"`
	ChatHistory   []agenttypes.ChatTurn      `json:"chat_history"`
	TaskLog       []agenttypes.TaskLogEntry  `json:"task_log"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// Update 画布部分更新，nil 字段不变
type Update struct {
	Name        *string                    `json:"name,omitempty"`
	Content     *[]agenttypes.Segment      `json:"content,omitempty"`
	Output      *string                    `json:"output,omitempty"`
	ChatHistory *[]agenttypes.ChatTurn     `json:"chat_history,omitempty"`
}

// RunOutcome 一次 Agent 运行落库的产出，含致命失败时的部分结果
type RunOutcome struct {
	Output  string
	Sources []agenttypes.Source
	TaskLog []agenttypes.TaskLogEntry
}

// Attachment 画布附件元信息
type Attachment struct {
	ID          string    `json:"id"`
	CanvasID    string    `json:"canvas_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	ObjectKey   string    `json:"object_key"`
	CreatedAt   time.Time `json:"created_at"`
}
