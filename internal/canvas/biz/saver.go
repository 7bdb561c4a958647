package biz

import (
	"sync"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/canvas/types"
)

// DefaultSaveDebounce 编辑保存的静默窗口
const DefaultSaveDebounce = 500 * time.Millisecond

// DebouncedSaver 合并高频编辑保存：同一画布在静默窗口内的
// 多次修改只落库一次，以最后一次的状态为准。
type DebouncedSaver struct {
	mu      sync.Mutex
	save    func(*types.Canvas)
	delay   time.Duration
	pending map[string]*pendingSave
}

type pendingSave struct {
	timer  *time.Timer
	canvas *types.Canvas
}

// NewDebouncedSaver 创建防抖保存器
func NewDebouncedSaver(save func(*types.Canvas), delay time.Duration) *DebouncedSaver {
	if delay <= 0 {
		delay = DefaultSaveDebounce
	}
	return &DebouncedSaver{
		save:    save,
		delay:   delay,
		pending: make(map[string]*pendingSave),
	}
}

// Schedule 登记一次保存，重置该画布的静默计时
func (s *DebouncedSaver) Schedule(canvas *types.Canvas) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.pending[canvas.ID]; ok {
		p.canvas = canvas
		p.timer.Reset(s.delay)
		return
	}

	id := canvas.ID
	p := &pendingSave{canvas: canvas}
	p.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		current, ok := s.pending[id]
		if ok {
			delete(s.pending, id)
		}
		s.mu.Unlock()
		if ok {
			s.save(current.canvas)
		}
	})
	s.pending[id] = p
}

// Pending 返回某画布待保存快照的副本，无待保存时返回 nil。
// 读取方必须经由此处合并，否则静默窗口内的修改对仓储不可见。
func (s *DebouncedSaver) Pending(id string) *types.Canvas {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		canvas := *p.canvas
		return &canvas
	}
	return nil
}

// Cancel 取消某画布的待保存
func (s *DebouncedSaver) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.pending[id]; ok {
		p.timer.Stop()
		delete(s.pending, id)
	}
}

// Flush 立即执行全部待保存
func (s *DebouncedSaver) Flush() {
	s.mu.Lock()
	var flush []*types.Canvas
	for id, p := range s.pending {
		p.timer.Stop()
		flush = append(flush, p.canvas)
		delete(s.pending, id)
	}
	s.mu.Unlock()

	for _, canvas := range flush {
		s.save(canvas)
	}
}
