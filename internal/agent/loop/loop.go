package loop

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/conversation"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/gateway"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/tools"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"

	"go.uber.org/zap"
)

// DefaultMaxIterations 单次运行的模型调用上限
const DefaultMaxIterations = 20

// Config Runner 配置
type Config struct {
	MaxIterations int
	Temperature   float64
}

// Runner 驱动模型完成多步工具调用的代理循环。
// 每次 Run 是一个独立的运行，消息列表不跨运行共享。
type Runner struct {
	gw       gateway.Gateway
	registry *tools.Registry
	cfg      Config
	log      *logger.Logger
}

// NewRunner 创建代理循环
func NewRunner(gw gateway.Gateway, registry *tools.Registry, cfg Config) *Runner {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Runner{gw: gw, registry: registry, cfg: cfg, log: logger.L()}
}

// Input 一次运行的输入
type Input struct {
	Messages      []ptypes.Message
	MemoryContext string // 检索到的记忆上下文，拼入系统指令
}

// Run 启动一次运行，事件按产生顺序写入返回的通道，运行结束后关闭。
// 模型通信失败以单个 EventError 终止，不再有 EventDone；
// 工具失败折叠为数据回传模型，运行继续。
func (r *Runner) Run(ctx context.Context, input Input) <-chan types.Event {
	events := make(chan types.Event, 32)
	go func() {
		defer close(events)
		r.run(ctx, input, events)
	}()
	return events
}

func (r *Runner) run(ctx context.Context, input Input, events chan<- types.Event) {
	instruction := spliceMemory(agentSystemInstruction, input.MemoryContext)
	messages := input.Messages
	declarations := r.registry.Declarations()

	var taskLog []types.TaskLogEntry
	appendEntry := func(entry types.TaskLogEntry) {
		taskLog = append(taskLog, entry)
		events <- types.TaskLogEvent(entry)
	}

	for iteration := 1; ; iteration++ {
		if iteration > r.cfg.MaxIterations {
			r.log.Warn("agent loop iteration limit reached",
				zap.Int("limit", r.cfg.MaxIterations))
			events <- types.ErrorEvent(types.ErrKindLoopLimitExceeded,
				fmt.Sprintf("agent loop exceeded %d iterations", r.cfg.MaxIterations))
			return
		}

		if iteration == 1 {
			events <- types.StatusEvent(types.StatusPlanning)
		} else {
			events <- types.StatusEvent(types.StatusThinking)
		}

		turn, err := r.gw.Generate(ctx, gateway.Request{
			SystemInstruction: instruction,
			Messages:          messages,
			Tools:             declarations,
			Temperature:       r.cfg.Temperature,
		})
		if err != nil {
			r.log.Error("model call failed",
				zap.Int("iteration", iteration),
				zap.Error(err))
			events <- types.ErrorEvent(types.ErrKindModelCommunication, err.Error())
			return
		}

		if !turn.HasToolCalls() {
			// 最终回合：无工具调用，聚合文本即最终答案
			events <- types.StatusEvent(types.StatusResponding)
			if turn.Text != "" {
				events <- types.TextDeltaEvent(turn.Text)
			}
			if len(turn.Sources) > 0 {
				events <- types.SourcesEvent(turn.Sources)
			}
			events <- types.StatusEvent(types.StatusIdle)
			events <- types.DoneEvent(types.RunResult{
				Text:    turn.Text,
				Sources: turn.Sources,
				TaskLog: taskLog,
			})
			return
		}

		if turn.Text != "" {
			appendEntry(types.TaskLogEntry{Kind: types.TaskLogThought, Content: turn.Text})
		}
		events <- types.StatusEvent(types.StatusExecutingTool)

		messages = append(messages, conversation.AssistantTurn(turn))
		var results []types.ToolResult
		for _, call := range turn.ToolCalls {
			appendEntry(types.TaskLogEntry{
				Kind:     types.TaskLogToolCall,
				ToolName: call.Name,
				Content:  prettyJSON(call.Arguments),
			})
			result := r.registry.Execute(ctx, call)
			results = append(results, result)
			appendEntry(types.TaskLogEntry{
				Kind:     types.TaskLogToolResult,
				ToolName: call.Name,
				Content:  prettyJSON(string(result.Payload)),
			})
		}
		// 全部结果在下一次模型调用前按原顺序折叠回消息列表
		messages = append(messages, conversation.FoldToolResults(results)...)
	}
}

// prettyJSON 缩进格式化 JSON，非法输入原样返回
func prettyJSON(raw string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(raw), "", "  "); err != nil {
		return raw
	}
	return buf.String()
}
