package sse

import (
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Stream 一次 HTTP 请求上的 SSE 输出流
type Stream struct {
	ctx       *gin.Context
	heartbeat time.Duration
}

// NewStream 在 gin 上下文上打开 SSE 流并写入响应头
func NewStream(c *gin.Context) *Stream {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	return &Stream{
		ctx:       c,
		heartbeat: 30 * time.Second,
	}
}

// Send 写出一个事件并立即刷新
func (s *Stream) Send(event Event) {
	s.ctx.Writer.WriteString(event.FormatSSE())
	s.ctx.Writer.Flush()
}

// Pump 消费事件通道直到其关闭或客户端断开。
// 返回 false 表示客户端提前断开。
func (s *Stream) Pump(events <-chan Event) bool {
	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()

	done := s.ctx.Request.Context().Done()
	for {
		select {
		case <-done:
			return false
		case <-ticker.C:
			io.WriteString(s.ctx.Writer, ": ping\n\n")
			s.ctx.Writer.Flush()
		case event, ok := <-events:
			if !ok {
				return true
			}
			s.Send(event)
		}
	}
}

// NewClient 为 Hub 订阅创建客户端
func NewClient(resource string, buffer int) *Client {
	return &Client{
		ID:       uuid.New().String(),
		Channel:  make(chan Event, buffer),
		Resource: resource,
	}
}
