package openai

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/ai/provider/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProvider(t *testing.T, baseURL string) *Provider {
	t.Helper()
	p, err := New(&types.Config{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Model:   "test-model",
	})
	require.NoError(t, err)
	return p
}

func TestCreateChatCompletionStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"你\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"好\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	chunks, err := p.CreateChatCompletionStream(context.Background(), types.ChatCompletionRequest{
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	var text string
	var done bool
	for chunk := range chunks {
		if chunk.Done {
			done = true
			break
		}
		for _, c := range chunk.Choices {
			text += c.Delta.Content
		}
	}
	assert.True(t, done)
	assert.Equal(t, "你好", text)
}

func TestCreateChatCompletionStream_ConsumerCancels(t *testing.T) {
	// 消费方提前取消后生产协程必须退出并关闭通道，
	// 即使缓冲已满也不能悬挂在发送上
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fl := w.(http.Flusher)
		for i := 0; i < 200; i++ {
			fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n\n")
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		fl.Flush()
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	chunks, err := p.CreateChatCompletionStream(ctx, types.ChatCompletionRequest{
		Messages: []types.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)

	<-chunks
	cancel()

	require.Eventually(t, func() bool {
		select {
		case _, ok := <-chunks:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond, "producer goroutine did not exit after cancellation")
}

func TestCreateChatCompletionStream_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL)
	_, err := p.CreateChatCompletionStream(context.Background(), types.ChatCompletionRequest{})
	require.Error(t, err)

	var provErr *types.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
}
