package tasklog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// RenderMarkdown 将任务日志渲染为 Markdown 文本。
// 纯函数，相同输入产生相同输出。
func RenderMarkdown(entries []types.TaskLogEntry) string {
	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch entry.Kind {
		case types.TaskLogPlan:
			b.WriteString("**计划：** ")
			b.WriteString(entry.Content)
		case types.TaskLogThought:
			b.WriteString("**思考：** ")
			b.WriteString(entry.Content)
		case types.TaskLogToolCall:
			fmt.Fprintf(&b, "**调用工具 `%s`**\n\n```json\n%s\n```", entry.ToolName, entry.Content)
		case types.TaskLogToolResult:
			fmt.Fprintf(&b, "**工具 `%s` 返回**\n\n```json\n%s\n```", entry.ToolName, entry.Content)
		case types.TaskLogError:
			fmt.Fprintf(&b, "---\n\n**错误：** %s\n\n---", entry.Content)
		default:
			b.WriteString(entry.Content)
		}
	}
	return b.String()
}

// RenderHTML 将任务日志渲染为 HTML，供前端直接展示
func RenderHTML(entries []types.TaskLogEntry) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(RenderMarkdown(entries)), &buf); err != nil {
		return "", fmt.Errorf("render task log: %w", err)
	}
	return buf.String(), nil
}
