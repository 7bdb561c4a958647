package service

import (
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/loop"
	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
	apperrors "github.com/lk2023060901/ai-canvas-backend/internal/pkg/errors"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Inline 行内快捷操作：对选中片段执行 rewrite/explain/continue。
// rewrite 替换选区，continue 在选区末尾后插入，
// explain 的结果进入会话历史，不修改正文。
func (s *Service) Inline(c *gin.Context) {
	var req InlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	action, err := loop.NormalizeAction(req.Action)
	if err != nil {
		response.AppError(c, apperrors.New(apperrors.ErrAgentInvalidInput, err.Error()))
		return
	}

	canvasID := c.Param("id")
	canvas, err := s.canvas.Get(c.Request.Context(), canvasID)
	if err != nil {
		response.AppError(c, err)
		return
	}

	segment, appErr := selectTextSegment(canvas.Content, req.SegmentIndex)
	if appErr != nil {
		response.AppError(c, appErr)
		return
	}
	content := segment.Content
	if req.Start < 0 || req.End > len(content) || req.Start > req.End {
		response.AppError(c, apperrors.New(apperrors.ErrAgentInvalidInput, "selection out of range"))
		return
	}
	selection := content[req.Start:req.End]

	result, err := s.runner.RunInline(c.Request.Context(), loop.InlineInput{
		Action:    action,
		Document:  agenttypes.JoinText(canvas.Content),
		Selection: selection,
	})
	if err != nil {
		response.AppError(c, apperrors.Wrap(err, apperrors.ErrAgentModelFailed))
		return
	}

	resp := InlineResponse{Action: string(action), Result: result}

	if !action.AppliesToDocument() {
		// explain 进入会话历史
		if _, err := s.canvas.AppendChat(c.Request.Context(), canvasID,
			agenttypes.ChatTurn{Sender: agenttypes.SenderUser, Text: "Explain: " + selection},
			agenttypes.ChatTurn{Sender: agenttypes.SenderBot, Text: result},
		); err != nil {
			response.AppError(c, err)
			return
		}
		resp.Explanation = result
		response.Success(c, resp)
		return
	}

	switch action {
	case loop.ActionRewrite:
		segment.Content = content[:req.Start] + result + content[req.End:]
	case loop.ActionContinue:
		segment.Content = content[:req.End] + result + content[req.End:]
	}

	newContent := make([]agenttypes.Segment, len(canvas.Content))
	copy(newContent, canvas.Content)
	newContent[req.SegmentIndex] = *segment

	updated, err := s.canvas.Update(c.Request.Context(), canvasID, &types.Update{Content: &newContent})
	if err != nil {
		response.AppError(c, err)
		return
	}
	resp.Content = updated.Content
	response.Success(c, resp)
}

func selectTextSegment(segments []agenttypes.Segment, index int) (*agenttypes.Segment, error) {
	if index < 0 || index >= len(segments) {
		return nil, apperrors.New(apperrors.ErrAgentInvalidInput, "segment index out of range")
	}
	seg := segments[index]
	if seg.Type != agenttypes.SegmentText {
		return nil, apperrors.New(apperrors.ErrAgentInvalidInput, "selected segment is not text")
	}
	return &seg, nil
}
