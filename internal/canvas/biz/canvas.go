package biz

import (
	"context"
	"time"

	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
	apperrors "github.com/lk2023060901/ai-canvas-backend/internal/pkg/errors"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CanvasRepo 画布仓储接口，由 data 层实现
type CanvasRepo interface {
	Create(ctx context.Context, canvas *types.Canvas) error
	GetByID(ctx context.Context, id string) (*types.Canvas, error)
	List(ctx context.Context) ([]*types.Canvas, error)
	Save(ctx context.Context, canvas *types.Canvas) error
	Delete(ctx context.Context, id string) error
	CreateAttachment(ctx context.Context, att *types.Attachment) error
	ListAttachments(ctx context.Context, canvasID string) ([]*types.Attachment, error)
}

// CanvasUseCase 画布业务逻辑
type CanvasUseCase struct {
	repo   CanvasRepo
	saver  *DebouncedSaver
	logger *logger.Logger
}

// NewCanvasUseCase 创建画布用例
func NewCanvasUseCase(repo CanvasRepo, saveDebounce time.Duration) *CanvasUseCase {
	uc := &CanvasUseCase{
		repo:   repo,
		logger: logger.L(),
	}
	uc.saver = NewDebouncedSaver(uc.flush, saveDebounce)
	return uc
}

// Create 新建画布
func (uc *CanvasUseCase) Create(ctx context.Context, name string, content []agenttypes.Segment) (*types.Canvas, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.ErrCanvasInvalidInput, "name is required")
	}
	if content == nil {
		content = []agenttypes.Segment{}
	}
	canvas := &types.Canvas{
		ID:            uuid.NewString(),
		Name:          name,
		Content:       content,
		OutputSources: []agenttypes.Source{},
		ChatHistory:   []agenttypes.ChatTurn{},
		TaskLog:       []agenttypes.TaskLogEntry{},
	}
	if err := uc.repo.Create(ctx, canvas); err != nil {
		return nil, err
	}
	uc.logger.Info("canvas created", zap.String("id", canvas.ID), zap.String("name", name))
	return canvas, nil
}

// CreateFromAgent 供 Agent 工具创建新画布，内容为单个文本段
func (uc *CanvasUseCase) CreateFromAgent(ctx context.Context, name, content string) (string, error) {
	var segments []agenttypes.Segment
	if content != "" {
		segments = []agenttypes.Segment{agenttypes.TextSegment(content)}
	}
	canvas, err := uc.Create(ctx, name, segments)
	if err != nil {
		return "", err
	}
	return canvas.ID, nil
}

// Get 按 ID 读取画布
func (uc *CanvasUseCase) Get(ctx context.Context, id string) (*types.Canvas, error) {
	return uc.current(ctx, id)
}

// current 读取画布最新状态，优先返回静默窗口内尚未落库的待保存快照
func (uc *CanvasUseCase) current(ctx context.Context, id string) (*types.Canvas, error) {
	if canvas := uc.saver.Pending(id); canvas != nil {
		return canvas, nil
	}
	return uc.repo.GetByID(ctx, id)
}

// List 列出全部画布
func (uc *CanvasUseCase) List(ctx context.Context) ([]*types.Canvas, error) {
	return uc.repo.List(ctx)
}

// Update 部分更新画布，编辑类更新经防抖合并后落库。
// 基底取待保存快照而非仓储，静默窗口内的连续部分更新逐次叠加。
func (uc *CanvasUseCase) Update(ctx context.Context, id string, update *types.Update) (*types.Canvas, error) {
	canvas, err := uc.current(ctx, id)
	if err != nil {
		return nil, err
	}
	if update.Name != nil {
		canvas.Name = *update.Name
	}
	if update.Content != nil {
		canvas.Content = *update.Content
	}
	if update.Output != nil {
		canvas.Output = *update.Output
	}
	if update.ChatHistory != nil {
		canvas.ChatHistory = *update.ChatHistory
	}
	uc.saver.Schedule(canvas)
	return canvas, nil
}

// Delete 删除画布
func (uc *CanvasUseCase) Delete(ctx context.Context, id string) error {
	uc.saver.Cancel(id)
	return uc.repo.Delete(ctx, id)
}

// SaveRunOutcome 持久化一次 Agent 运行的产出。
// 运行中途失败时同样调用，保留已累积的部分结果。
func (uc *CanvasUseCase) SaveRunOutcome(ctx context.Context, id string, outcome *types.RunOutcome) error {
	canvas, err := uc.current(ctx, id)
	if err != nil {
		return err
	}
	canvas.Output = outcome.Output
	canvas.OutputSources = outcome.Sources
	if canvas.OutputSources == nil {
		canvas.OutputSources = []agenttypes.Source{}
	}
	canvas.TaskLog = outcome.TaskLog
	if canvas.TaskLog == nil {
		canvas.TaskLog = []agenttypes.TaskLogEntry{}
	}
	if err := uc.repo.Save(ctx, canvas); err != nil {
		return err
	}
	// 立即落库已包含待保存的编辑，丢弃旧快照防止回写覆盖
	uc.saver.Cancel(id)
	return nil
}

// AppendChat 追加一轮会话并立即落库
func (uc *CanvasUseCase) AppendChat(ctx context.Context, id string, turns ...agenttypes.ChatTurn) (*types.Canvas, error) {
	canvas, err := uc.current(ctx, id)
	if err != nil {
		return nil, err
	}
	canvas.ChatHistory = append(canvas.ChatHistory, turns...)
	if err := uc.repo.Save(ctx, canvas); err != nil {
		return nil, err
	}
	uc.saver.Cancel(id)
	return canvas, nil
}

// CreateAttachment 记录附件元信息
func (uc *CanvasUseCase) CreateAttachment(ctx context.Context, att *types.Attachment) error {
	return uc.repo.CreateAttachment(ctx, att)
}

// ListAttachments 列出画布附件
func (uc *CanvasUseCase) ListAttachments(ctx context.Context, canvasID string) ([]*types.Attachment, error) {
	if _, err := uc.repo.GetByID(ctx, canvasID); err != nil {
		return nil, err
	}
	return uc.repo.ListAttachments(ctx, canvasID)
}

// Flush 立即落库全部待保存的画布，进程退出前调用
func (uc *CanvasUseCase) Flush() {
	uc.saver.Flush()
}

// flush 防抖定时器到期后的实际落库
func (uc *CanvasUseCase) flush(canvas *types.Canvas) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := uc.repo.Save(ctx, canvas); err != nil {
		// 保存失败不回滚内存态，下次编辑重试
		uc.logger.Error("debounced canvas save failed",
			zap.String("id", canvas.ID),
			zap.Error(err))
	}
}
