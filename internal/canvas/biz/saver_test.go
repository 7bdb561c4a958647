package biz

import (
	"sync"
	"testing"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type saveRecorder struct {
	mu    sync.Mutex
	saves []*types.Canvas
}

func (r *saveRecorder) save(c *types.Canvas) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, c)
}

func (r *saveRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *saveRecorder) last() *types.Canvas {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.saves) == 0 {
		return nil
	}
	return r.saves[len(r.saves)-1]
}

func TestDebouncedSaver_CoalescesRapidEdits(t *testing.T) {
	rec := &saveRecorder{}
	s := NewDebouncedSaver(rec.save, 30*time.Millisecond)

	// 静默窗口内的多次修改只落库一次，以最后状态为准
	s.Schedule(&types.Canvas{ID: "c1", Output: "v1"})
	s.Schedule(&types.Canvas{ID: "c1", Output: "v2"})
	s.Schedule(&types.Canvas{ID: "c1", Output: "v3"})

	require.Eventually(t, func() bool {
		return rec.count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "v3", rec.last().Output)

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestDebouncedSaver_IndependentPerCanvas(t *testing.T) {
	rec := &saveRecorder{}
	s := NewDebouncedSaver(rec.save, 20*time.Millisecond)

	s.Schedule(&types.Canvas{ID: "a"})
	s.Schedule(&types.Canvas{ID: "b"})

	require.Eventually(t, func() bool {
		return rec.count() == 2
	}, time.Second, 5*time.Millisecond)
}

func TestDebouncedSaver_Cancel(t *testing.T) {
	rec := &saveRecorder{}
	s := NewDebouncedSaver(rec.save, 20*time.Millisecond)

	s.Schedule(&types.Canvas{ID: "a"})
	s.Cancel("a")

	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 0, rec.count())
}

func TestDebouncedSaver_Flush(t *testing.T) {
	rec := &saveRecorder{}
	s := NewDebouncedSaver(rec.save, time.Hour)

	s.Schedule(&types.Canvas{ID: "a"})
	s.Schedule(&types.Canvas{ID: "b"})
	s.Flush()

	assert.Equal(t, 2, rec.count())

	// Flush 后不再触发
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 2, rec.count())
}
