package attachment

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/lk2023060901/ai-canvas-backend/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Config MinIO 对象存储配置
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Store 画布附件的对象存储：图片等二进制内容上传到 MinIO，
// 画布里只保留对象键
type Store struct {
	client *minio.Client
	bucket string
	logger *logger.Logger
}

// NewStore 创建附件存储并确保 bucket 存在
func NewStore(ctx context.Context, cfg *Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
	}

	logger.L().Info("attachment store initialized",
		zap.String("endpoint", cfg.Endpoint),
		zap.String("bucket", cfg.Bucket))

	return &Store{client: client, bucket: cfg.Bucket, logger: logger.L()}, nil
}

// Upload 上传附件内容，返回对象键
func (s *Store) Upload(ctx context.Context, canvasID, fileName, contentType string, size int64, reader io.Reader) (string, error) {
	objectKey := path.Join("canvases", canvasID, uuid.NewString()+path.Ext(fileName))

	_, err := s.client.PutObject(ctx, s.bucket, objectKey, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload attachment: %w", err)
	}
	return objectKey, nil
}

// Download 读取附件内容，调用方负责关闭
func (s *Store) Download(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to download attachment: %w", err)
	}
	return obj, nil
}

// PresignedURL 生成限时下载链接
func (s *Store) PresignedURL(ctx context.Context, objectKey, fileName string, expiry time.Duration) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))

	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectKey, expiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to presign attachment url: %w", err)
	}
	return u.String(), nil
}

// Delete 删除附件对象
func (s *Store) Delete(ctx context.Context, objectKey string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete attachment: %w", err)
	}
	return nil
}
