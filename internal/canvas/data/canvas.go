package data

import (
	"context"
	"errors"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
	apperrors "github.com/lk2023060901/ai-canvas-backend/internal/pkg/errors"

	"gorm.io/gorm"
)

// CanvasRepo 基于 GORM 的画布仓储
type CanvasRepo struct {
	db *gorm.DB
}

// NewCanvasRepo 创建画布仓储
func NewCanvasRepo(db *gorm.DB) *CanvasRepo {
	return &CanvasRepo{db: db}
}

// Migrate 执行建表迁移
func (r *CanvasRepo) Migrate() error {
	return r.db.AutoMigrate(&CanvasModel{}, &AttachmentModel{})
}

// Create 新建画布
func (r *CanvasRepo) Create(ctx context.Context, canvas *types.Canvas) error {
	model := toModel(canvas)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "failed to create canvas")
	}
	canvas.CreatedAt = model.CreatedAt
	canvas.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID 按 ID 读取画布
func (r *CanvasRepo) GetByID(ctx context.Context, id string) (*types.Canvas, error) {
	var model CanvasModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.ErrCanvasNotFound)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "failed to get canvas")
	}
	return toDomain(&model), nil
}

// List 按创建时间倒序列出全部画布
func (r *CanvasRepo) List(ctx context.Context) ([]*types.Canvas, error) {
	var models []CanvasModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "failed to list canvases")
	}
	canvases := make([]*types.Canvas, 0, len(models))
	for i := range models {
		canvases = append(canvases, toDomain(&models[i]))
	}
	return canvases, nil
}

// Save 整体保存画布
func (r *CanvasRepo) Save(ctx context.Context, canvas *types.Canvas) error {
	model := toModel(canvas)
	model.UpdatedAt = time.Now()
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrCanvasSaveFailed, "failed to save canvas")
	}
	return nil
}

// Delete 软删除画布
func (r *CanvasRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&CanvasModel{}, "id = ?", id)
	if result.Error != nil {
		return apperrors.Wrap(result.Error, apperrors.ErrInternalServer, "failed to delete canvas")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.ErrCanvasNotFound)
	}
	return nil
}

// CreateAttachment 记录附件元信息
func (r *CanvasRepo) CreateAttachment(ctx context.Context, att *types.Attachment) error {
	model := &AttachmentModel{
		ID:          att.ID,
		CanvasID:    att.CanvasID,
		FileName:    att.FileName,
		ContentType: att.ContentType,
		Size:        att.Size,
		ObjectKey:   att.ObjectKey,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return apperrors.Wrap(err, apperrors.ErrInternalServer, "failed to create attachment")
	}
	att.CreatedAt = model.CreatedAt
	return nil
}

// ListAttachments 列出画布的全部附件
func (r *CanvasRepo) ListAttachments(ctx context.Context, canvasID string) ([]*types.Attachment, error) {
	var models []AttachmentModel
	if err := r.db.WithContext(ctx).
		Where("canvas_id = ?", canvasID).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrInternalServer, "failed to list attachments")
	}
	attachments := make([]*types.Attachment, 0, len(models))
	for i := range models {
		m := &models[i]
		attachments = append(attachments, &types.Attachment{
			ID:          m.ID,
			CanvasID:    m.CanvasID,
			FileName:    m.FileName,
			ContentType: m.ContentType,
			Size:        m.Size,
			ObjectKey:   m.ObjectKey,
			CreatedAt:   m.CreatedAt,
		})
	}
	return attachments, nil
}

func toModel(c *types.Canvas) *CanvasModel {
	return &CanvasModel{
		ID:            c.ID,
		Name:          c.Name,
		Content:       SegmentArray(c.Content),
		Output:        c.Output,
		OutputSources: SourceArray(c.OutputSources),
		ChatHistory:   ChatTurnArray(c.ChatHistory),
		TaskLog:       TaskLogArray(c.TaskLog),
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func toDomain(m *CanvasModel) *types.Canvas {
	return &types.Canvas{
		ID:            m.ID,
		Name:          m.Name,
		Content:       m.Content,
		Output:        m.Output,
		OutputSources: m.OutputSources,
		ChatHistory:   m.ChatHistory,
		TaskLog:       m.TaskLog,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
