package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	canvasservice "github.com/lk2023060901/ai-canvas-backend/internal/canvas/service"
	"github.com/lk2023060901/ai-canvas-backend/internal/conf"
	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPServer 画布服务的 HTTP 入口
type HTTPServer struct {
	server *http.Server
	logger *logger.Logger
}

// NewHTTPServer 创建 HTTP 服务器并注册路由
func NewHTTPServer(config *conf.Config, log *logger.Logger, canvasService *canvasservice.Service) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(logger.GinRecovery(log))
	router.Use(logger.GinLogger(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	canvasService.RegisterRoutes(api)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)

	return &HTTPServer{
		server: &http.Server{
			Addr:    addr,
			Handler: router,
		},
		logger: log,
	}
}

// Start 启动监听，阻塞直到服务器关闭
func (s *HTTPServer) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop 优雅关闭
func (s *HTTPServer) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")
	return s.server.Shutdown(ctx)
}
