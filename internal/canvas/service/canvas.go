package service

import (
	"net/http"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/agent/loop"
	"github.com/lk2023060901/ai-canvas-backend/internal/agent/tasklog"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/attachment"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/biz"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
	memorybiz "github.com/lk2023060901/ai-canvas-backend/internal/memory/biz"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/response"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/sse"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const presignedURLExpiry = 15 * time.Minute

// Service 画布 HTTP 服务
type Service struct {
	canvas      *biz.CanvasUseCase
	runner      *loop.Runner
	memory      *memorybiz.UseCase
	attachments *attachment.Store
	hub         *sse.Hub
	logger      *logger.Logger
}

// NewService 创建画布服务。memory 与 attachments 可为 nil，
// 对应能力降级关闭。
func NewService(canvas *biz.CanvasUseCase, runner *loop.Runner, memory *memorybiz.UseCase, attachments *attachment.Store) *Service {
	return &Service{
		canvas:      canvas,
		runner:      runner,
		memory:      memory,
		attachments: attachments,
		hub:         sse.NewHub(),
		logger:      logger.L(),
	}
}

// RegisterRoutes 注册路由
func (s *Service) RegisterRoutes(r gin.IRouter) {
	canvases := r.Group("/canvases")
	{
		canvases.POST("", s.CreateCanvas)
		canvases.GET("", s.ListCanvases)
		canvases.GET("/:id", s.GetCanvas)
		canvases.PATCH("/:id", s.UpdateCanvas)
		canvases.DELETE("/:id", s.DeleteCanvas)

		canvases.POST("/:id/generate", s.Generate)
		canvases.GET("/:id/events", s.SubscribeEvents)
		canvases.POST("/:id/chat", s.Chat)
		canvases.POST("/:id/inline", s.Inline)
		canvases.GET("/:id/tasklog", s.GetTaskLog)

		canvases.POST("/:id/attachments", s.UploadAttachment)
		canvases.GET("/:id/attachments", s.ListAttachments)
	}
}

// CreateCanvas 新建画布
func (s *Service) CreateCanvas(c *gin.Context) {
	var req CreateCanvasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	canvas, err := s.canvas.Create(c.Request.Context(), req.Name, req.Content)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Created(c, canvas)
}

// ListCanvases 列出全部画布
func (s *Service) ListCanvases(c *gin.Context) {
	canvases, err := s.canvas.List(c.Request.Context())
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, canvases)
}

// GetCanvas 读取画布
func (s *Service) GetCanvas(c *gin.Context) {
	canvas, err := s.canvas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, canvas)
}

// UpdateCanvas 部分更新画布，编辑保存经防抖合并
func (s *Service) UpdateCanvas(c *gin.Context) {
	var req UpdateCanvasRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	canvas, err := s.canvas.Update(c.Request.Context(), c.Param("id"), &types.Update{
		Name:        req.Name,
		Content:     req.Content,
		Output:      req.Output,
		ChatHistory: req.ChatHistory,
	})
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, canvas)
}

// DeleteCanvas 删除画布
func (s *Service) DeleteCanvas(c *gin.Context) {
	if err := s.canvas.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, nil)
}

// GetTaskLog 返回最近一次运行的任务日志及渲染结果
func (s *Service) GetTaskLog(c *gin.Context) {
	canvas, err := s.canvas.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.AppError(c, err)
		return
	}
	html, err := tasklog.RenderHTML(canvas.TaskLog)
	if err != nil {
		response.AppError(c, err)
		return
	}
	response.Success(c, TaskLogResponse{
		Entries:  canvas.TaskLog,
		Markdown: tasklog.RenderMarkdown(canvas.TaskLog),
		HTML:     html,
	})
}

// UploadAttachment 上传画布附件
func (s *Service) UploadAttachment(c *gin.Context) {
	if s.attachments == nil {
		response.Error(c, http.StatusNotImplemented, "attachment storage is not configured")
		return
	}
	canvasID := c.Param("id")
	if _, err := s.canvas.Get(c.Request.Context(), canvasID); err != nil {
		response.AppError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "file is required")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	objectKey, err := s.attachments.Upload(c.Request.Context(),
		canvasID, fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		s.logger.Error("attachment upload failed",
			zap.String("canvas_id", canvasID),
			zap.Error(err))
		response.InternalError(c, "attachment upload failed")
		return
	}

	att := &types.Attachment{
		ID:          uuid.NewString(),
		CanvasID:    canvasID,
		FileName:    fileHeader.Filename,
		ContentType: contentType,
		Size:        fileHeader.Size,
		ObjectKey:   objectKey,
	}
	if err := s.canvas.CreateAttachment(c.Request.Context(), att); err != nil {
		response.AppError(c, err)
		return
	}
	response.Created(c, att)
}

// ListAttachments 列出画布附件及限时下载链接
func (s *Service) ListAttachments(c *gin.Context) {
	if s.attachments == nil {
		response.Error(c, http.StatusNotImplemented, "attachment storage is not configured")
		return
	}
	attachments, err := s.canvas.ListAttachments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.AppError(c, err)
		return
	}

	type attachmentWithURL struct {
		*types.Attachment
		URL string `json:"url"`
	}
	out := make([]attachmentWithURL, 0, len(attachments))
	for _, att := range attachments {
		url, err := s.attachments.PresignedURL(c.Request.Context(), att.ObjectKey, att.FileName, presignedURLExpiry)
		if err != nil {
			s.logger.Warn("presign attachment url failed",
				zap.String("object_key", att.ObjectKey),
				zap.Error(err))
		}
		out = append(out, attachmentWithURL{Attachment: att, URL: url})
	}
	response.Success(c, out)
}
