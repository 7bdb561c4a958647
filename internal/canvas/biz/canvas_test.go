package biz

import (
	"context"
	"sync"
	"testing"
	"time"

	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"
	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
	apperrors "github.com/lk2023060901/ai-canvas-backend/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCanvasRepo struct {
	mu       sync.Mutex
	canvases map[string]types.Canvas
	saves    int
}

func newFakeCanvasRepo() *fakeCanvasRepo {
	return &fakeCanvasRepo{canvases: make(map[string]types.Canvas)}
}

func (r *fakeCanvasRepo) Create(ctx context.Context, canvas *types.Canvas) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canvases[canvas.ID] = *canvas
	return nil
}

func (r *fakeCanvasRepo) GetByID(ctx context.Context, id string) (*types.Canvas, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.canvases[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrCanvasNotFound)
	}
	return &c, nil
}

func (r *fakeCanvasRepo) List(ctx context.Context) ([]*types.Canvas, error) {
	return nil, nil
}

func (r *fakeCanvasRepo) Save(ctx context.Context, canvas *types.Canvas) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canvases[canvas.ID] = *canvas
	r.saves++
	return nil
}

func (r *fakeCanvasRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.canvases, id)
	return nil
}

func (r *fakeCanvasRepo) CreateAttachment(ctx context.Context, att *types.Attachment) error {
	return nil
}

func (r *fakeCanvasRepo) ListAttachments(ctx context.Context, canvasID string) ([]*types.Attachment, error) {
	return nil, nil
}

func (r *fakeCanvasRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func strPtr(s string) *string { return &s }

func TestUpdate_MergesPartialUpdatesInWindow(t *testing.T) {
	repo := newFakeCanvasRepo()
	uc := NewCanvasUseCase(repo, 50*time.Millisecond)
	ctx := context.Background()

	canvas, err := uc.Create(ctx, "old-name", nil)
	require.NoError(t, err)

	// 静默窗口内的两次部分更新必须叠加，而非后者覆盖前者
	_, err = uc.Update(ctx, canvas.ID, &types.Update{Name: strPtr("new-name")})
	require.NoError(t, err)

	content := []agenttypes.Segment{agenttypes.TextSegment("正文")}
	_, err = uc.Update(ctx, canvas.ID, &types.Update{Content: &content})
	require.NoError(t, err)

	uc.Flush()

	saved, err := repo.GetByID(ctx, canvas.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-name", saved.Name)
	require.Len(t, saved.Content, 1)
	assert.Equal(t, "正文", saved.Content[0].Content)
}

func TestGet_ReadsThroughPendingSave(t *testing.T) {
	repo := newFakeCanvasRepo()
	uc := NewCanvasUseCase(repo, time.Hour)
	ctx := context.Background()

	canvas, err := uc.Create(ctx, "old-name", nil)
	require.NoError(t, err)

	_, err = uc.Update(ctx, canvas.ID, &types.Update{Name: strPtr("new-name")})
	require.NoError(t, err)

	// 落库尚未发生，读取仍须看到最新编辑
	got, err := uc.Get(ctx, canvas.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-name", got.Name)

	stored, err := repo.GetByID(ctx, canvas.ID)
	require.NoError(t, err)
	assert.Equal(t, "old-name", stored.Name)

	uc.Flush()
}

func TestAppendChat_KeepsPendingEdits(t *testing.T) {
	repo := newFakeCanvasRepo()
	uc := NewCanvasUseCase(repo, 30*time.Millisecond)
	ctx := context.Background()

	canvas, err := uc.Create(ctx, "old-name", nil)
	require.NoError(t, err)

	_, err = uc.Update(ctx, canvas.ID, &types.Update{Name: strPtr("new-name")})
	require.NoError(t, err)

	_, err = uc.AppendChat(ctx, canvas.ID,
		agenttypes.ChatTurn{Sender: agenttypes.SenderUser, Text: "你好"})
	require.NoError(t, err)

	// 立即落库已合并待保存的编辑，过期快照不得再回写
	before := repo.saveCount()
	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, before, repo.saveCount())

	saved, err := repo.GetByID(ctx, canvas.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-name", saved.Name)
	require.Len(t, saved.ChatHistory, 1)
	assert.Equal(t, "你好", saved.ChatHistory[0].Text)
}
