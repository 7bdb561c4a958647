package tasklog

import (
	"testing"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []types.TaskLogEntry {
	return []types.TaskLogEntry{
		{Kind: types.TaskLogThought, Content: "需要先抓取页面"},
		{Kind: types.TaskLogToolCall, ToolName: "fetch_web_content", Content: `{"url":"https://a.com"}`},
		{Kind: types.TaskLogToolResult, ToolName: "fetch_web_content", Content: `{"content":"正文"}`},
		{Kind: types.TaskLogError, Content: "模型连接中断"},
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown(sampleEntries())
	assert.Contains(t, out, "需要先抓取页面")
	assert.Contains(t, out, "`fetch_web_content`")
	assert.Contains(t, out, "```json")
	assert.Contains(t, out, "**错误：** 模型连接中断")
}

func TestRenderMarkdown_Idempotent(t *testing.T) {
	entries := sampleEntries()
	first := RenderMarkdown(entries)
	second := RenderMarkdown(entries)
	assert.Equal(t, first, second)
}

func TestRenderMarkdown_Empty(t *testing.T) {
	assert.Equal(t, "", RenderMarkdown(nil))
}

func TestRenderHTML(t *testing.T) {
	out, err := RenderHTML(sampleEntries())
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>")
	assert.Contains(t, out, "<code>")
}
