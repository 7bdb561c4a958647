package tools

import (
	"context"
	"encoding/json"
	"errors"

	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"

	"github.com/tidwall/gjson"
)

// CanvasCreator 由画布业务层实现，供 Agent 创建新画布
type CanvasCreator interface {
	CreateFromAgent(ctx context.Context, name, content string) (string, error)
}

// CanvasTool 供模型创建新画布的工具
type CanvasTool struct {
	creator CanvasCreator
}

// NewCanvasTool 创建画布工具
func NewCanvasTool(creator CanvasCreator) *CanvasTool {
	return &CanvasTool{creator: creator}
}

func (t *CanvasTool) Name() string {
	return "create_canvas"
}

func (t *CanvasTool) Declaration() ptypes.Tool {
	return ptypes.Tool{
		Type: "function",
		Function: ptypes.ToolFunction{
			Name:        t.Name(),
			Description: "Creates a new canvas document with the given name and initial text content. Use this when the user asks to start a new document or split content into a separate canvas.",
			Parameters: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"name": map[string]interface{}{
						"type":        "string",
						"description": "Display name of the new canvas.",
					},
					"content": map[string]interface{}{
						"type":        "string",
						"description": "Initial text content of the canvas. May be empty.",
					},
				},
				"required": []string{"name"},
			},
		},
	}
}

func (t *CanvasTool) Execute(ctx context.Context, args string) (json.RawMessage, error) {
	name := gjson.Get(args, "name").String()
	if name == "" {
		return nil, errors.New("missing required argument: name")
	}
	content := gjson.Get(args, "content").String()

	id, err := t.creator.CreateFromAgent(ctx, name, content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{
		"canvas_id": id,
		"name":      name,
		"status":    "created",
	})
}
