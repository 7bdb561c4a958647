package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/conversation"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/loop"
	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
	apperrors "github.com/lk2023060901/ai-canvas-backend/internal/pkg/errors"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/response"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/sse"
	ptypes "github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Generate 对画布内容发起一次 Agent 运行，事件经 SSE 实时推送。
// 运行结束后将产出与任务日志落库；致命失败时保留已累积的部分结果。
func (s *Service) Generate(c *gin.Context) {
	canvasID := c.Param("id")
	canvas, err := s.canvas.Get(c.Request.Context(), canvasID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	message := conversation.SegmentsToMessage(canvas.Content)
	if message == nil {
		response.AppError(c, apperrors.New(apperrors.ErrAgentInvalidInput, "canvas has no content"))
		return
	}

	inputText := agenttypes.JoinText(canvas.Content)
	memoryContext := ""
	if s.memory != nil {
		// 运行前一次性检索，不随迭代重复
		memoryContext = s.memory.BuildContext(c.Request.Context(), inputText)
	}

	events := s.runner.Run(c.Request.Context(), loop.Input{
		Messages:      []ptypes.Message{*message},
		MemoryContext: memoryContext,
	})

	stream := sse.NewStream(c)
	outcome, runErr := s.pumpRun(stream, canvasResource(canvasID), events)

	// 客户端已断开也要落库，用后台上下文
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.canvas.SaveRunOutcome(saveCtx, canvasID, outcome); err != nil {
		s.logger.Error("failed to persist run outcome",
			zap.String("canvas_id", canvasID),
			zap.Error(err))
	}

	if runErr == nil && s.memory != nil && outcome.Output != "" {
		s.memory.Remember(memorySummary(canvas.Name, inputText, outcome.Output))
	}
}

// SubscribeEvents 订阅画布的运行事件广播。发起运行的客户端
// 从 Generate 的响应流接收事件，其余观察者走这里。
func (s *Service) SubscribeEvents(c *gin.Context) {
	canvasID := c.Param("id")
	if _, err := s.canvas.Get(c.Request.Context(), canvasID); err != nil {
		response.AppError(c, err)
		return
	}

	client := sse.NewClient(canvasResource(canvasID), 64)
	s.hub.Register(client)
	defer s.hub.Unregister(client)

	stream := sse.NewStream(c)
	stream.Pump(client.Channel)
}

func canvasResource(canvasID string) string {
	return "canvas:" + canvasID
}

// pumpRun 将运行事件转发到 SSE 流与订阅方，同时聚合落库所需的产出
func (s *Service) pumpRun(stream *sse.Stream, resource string, events <-chan agenttypes.Event) (*types.RunOutcome, *agenttypes.RunError) {
	var (
		text    strings.Builder
		outcome = &types.RunOutcome{}
		runErr  *agenttypes.RunError
	)

	for ev := range events {
		out := toSSE(ev)
		stream.Send(out)
		s.hub.Broadcast(resource, out)
		switch ev.Type {
		case agenttypes.EventTextDelta:
			text.WriteString(ev.Text)
		case agenttypes.EventTaskLog:
			outcome.TaskLog = append(outcome.TaskLog, *ev.Entry)
		case agenttypes.EventSources:
			outcome.Sources = mergeSources(outcome.Sources, ev.Sources)
		case agenttypes.EventDone:
			if ev.Result != nil {
				outcome.Output = ev.Result.Text
				outcome.Sources = mergeSources(outcome.Sources, ev.Result.Sources)
			}
		case agenttypes.EventError:
			runErr = ev.Err
		}
	}

	if runErr != nil {
		// 部分产出前置错误块，并在任务日志中留痕
		outcome.Output = fmt.Sprintf("---\n**Error:** %s\n---\n\n%s", runErr.Message, text.String())
		outcome.TaskLog = append(outcome.TaskLog, agenttypes.TaskLogEntry{
			Kind:    agenttypes.TaskLogError,
			Content: runErr.Message,
		})
	} else if outcome.Output == "" {
		outcome.Output = text.String()
	}
	return outcome, runErr
}

// toSSE 将运行事件转换为 SSE 载荷
func toSSE(ev agenttypes.Event) sse.Event {
	switch ev.Type {
	case agenttypes.EventStatus:
		return sse.Event{Type: string(ev.Type), Data: gin.H{"status": ev.Status}}
	case agenttypes.EventTaskLog:
		return sse.Event{Type: string(ev.Type), Data: ev.Entry}
	case agenttypes.EventTextDelta:
		return sse.Event{Type: string(ev.Type), Data: gin.H{"text": ev.Text}}
	case agenttypes.EventSources:
		return sse.Event{Type: string(ev.Type), Data: ev.Sources}
	case agenttypes.EventDone:
		return sse.Event{Type: string(ev.Type), Data: ev.Result}
	case agenttypes.EventError:
		return sse.Event{Type: string(ev.Type), Data: ev.Err}
	default:
		return sse.Event{Type: string(ev.Type)}
	}
}

// mergeSources 按 URI 去重合并来源，保持首次出现顺序
func mergeSources(existing, incoming []agenttypes.Source) []agenttypes.Source {
	seen := make(map[string]struct{}, len(existing))
	for _, src := range existing {
		seen[src.URI] = struct{}{}
	}
	for _, src := range incoming {
		if _, ok := seen[src.URI]; ok {
			continue
		}
		seen[src.URI] = struct{}{}
		existing = append(existing, src)
	}
	return existing
}

// memorySummary 构造一次运行的记忆内容
func memorySummary(canvasName, request, output string) string {
	const maxLen = 2000
	summary := fmt.Sprintf("Canvas %q\nRequest: %s\nOutcome: %s", canvasName, request, output)
	if len(summary) > maxLen {
		summary = summary[:maxLen]
	}
	return summary
}
