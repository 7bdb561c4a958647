package service

import (
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/loop"
	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	apperrors "github.com/lk2023060901/ai-canvas-backend/internal/pkg/errors"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// chatErrorReply 模型调用失败时写入会话历史的回复
const chatErrorReply = "I encountered an error. Please try again."

// Chat 围绕画布的问答：单次模型调用，回复追加进会话历史
func (s *Service) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	canvasID := c.Param("id")
	canvas, err := s.canvas.Get(c.Request.Context(), canvasID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	memoryContext := ""
	if s.memory != nil {
		memoryContext = s.memory.BuildContext(c.Request.Context(), req.Message)
	}

	turn, err := s.runner.RunChat(c.Request.Context(), loop.ChatInput{
		CanvasText:    agenttypes.JoinText(canvas.Content),
		History:       canvas.ChatHistory,
		UserMessage:   req.Message,
		MemoryContext: memoryContext,
	})
	if err != nil {
		// 模型失败同样入史：用户消息加一条报错回复
		if _, appendErr := s.canvas.AppendChat(c.Request.Context(), canvasID,
			agenttypes.ChatTurn{Sender: agenttypes.SenderUser, Text: req.Message},
			agenttypes.ChatTurn{Sender: agenttypes.SenderBot, Text: chatErrorReply},
		); appendErr != nil {
			s.logger.Error("failed to persist chat error turn",
				zap.String("canvas_id", canvasID),
				zap.Error(appendErr))
		}
		response.AppError(c, apperrors.Wrap(err, apperrors.ErrAgentModelFailed))
		return
	}

	updated, err := s.canvas.AppendChat(c.Request.Context(), canvasID,
		agenttypes.ChatTurn{Sender: agenttypes.SenderUser, Text: req.Message},
		agenttypes.ChatTurn{Sender: agenttypes.SenderBot, Text: turn.Text},
	)
	if err != nil {
		response.AppError(c, err)
		return
	}

	response.Success(c, ChatResponse{
		Reply:   turn.Text,
		Sources: turn.Sources,
		History: updated.ChatHistory,
	})
}
