package loop

import (
	"context"
	"fmt"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/gateway"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
)

// InlineAction 对选中文本的快捷操作
type InlineAction string

const (
	ActionRewrite  InlineAction = "rewrite"
	ActionExplain  InlineAction = "explain"
	ActionContinue InlineAction = "continue"
)

// NormalizeAction 解析操作名。历史客户端用 refactor 表示改写，按别名接受。
func NormalizeAction(s string) (InlineAction, error) {
	switch s {
	case "rewrite", "refactor":
		return ActionRewrite, nil
	case "explain":
		return ActionExplain, nil
	case "continue":
		return ActionContinue, nil
	default:
		return "", fmt.Errorf("unknown inline action: %q", s)
	}
}

// AppliesToDocument 操作结果是否写回文档正文。
// explain 的结果进入会话记录，不修改正文。
func (a InlineAction) AppliesToDocument() bool {
	return a != ActionExplain
}

func (a InlineAction) instruction() string {
	switch a {
	case ActionRewrite:
		return inlineRewriteInstruction
	case ActionExplain:
		return inlineExplainInstruction
	default:
		return inlineContinueInstruction
	}
}

// InlineInput 一次行内操作的输入
type InlineInput struct {
	Action    InlineAction
	Document  string // 完整文档文本，作为上下文
	Selection string // 选中片段
}

// RunInline 执行单次行内操作：一次模型调用，无工具，无循环。
// 返回模型产出的文本，定位与写回由调用方完成。
func (r *Runner) RunInline(ctx context.Context, input InlineInput) (string, error) {
	prompt := fmt.Sprintf("Document:\n%s\n\nSelected passage:\n%s", input.Document, input.Selection)
	turn, err := r.gw.Generate(ctx, gateway.Request{
		SystemInstruction: input.Action.instruction(),
		Messages:          []ptypes.Message{{Role: "user", Content: prompt}},
		Temperature:       r.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return turn.Text, nil
}
