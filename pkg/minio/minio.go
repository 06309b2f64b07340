package minio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"LinkChat/config"
	"LinkChat/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var global *MinIOClient

// MinIOClient MinIO 客户端封装
type MinIOClient struct {
	client *minio.Client
	config config.MinIOConfig
}

// Client 返回全局 MinIO 客户端（未初始化时为 nil）
func Client() *MinIOClient {
	return global
}

// ReplaceGlobal 设置全局 MinIO 客户端
func ReplaceGlobal(c *MinIOClient) {
	global = c
}

// Build 基于配置创建 MinIO 客户端并确保 Bucket 存在。
func Build(ctx context.Context, cfg config.MinIOConfig) (*MinIOClient, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("minio endpoint is empty")
	}
	if strings.TrimSpace(cfg.AccessKeyID) == "" {
		return nil, errors.New("minio accessKeyId is empty")
	}
	if strings.TrimSpace(cfg.SecretAccessKey) == "" {
		return nil, errors.New("minio secretAccessKey is empty")
	}
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("minio bucketName is empty")
	}

	minioClient, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Transport: &http.Transport{
			MaxIdleConns:        cfg.MaxIdleConns,
			MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
			IdleConnTimeout:     cfg.IdleConnTimeout,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	client := &MinIOClient{client: minioClient, config: cfg}

	exists, err := minioClient.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket exists: %w", err)
	}
	if !exists {
		if err := minioClient.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{
			Region: cfg.Location,
		}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		logger.Info(ctx, "MinIO Bucket 创建成功",
			logger.String("bucket", cfg.BucketName),
		)
		if cfg.PublicRead {
			policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, cfg.BucketName)
			if err := minioClient.SetBucketPolicy(ctx, cfg.BucketName, policy); err != nil {
				logger.Warn(ctx, "设置 Bucket 公开读策略失败",
					logger.String("bucket", cfg.BucketName),
					logger.ErrorField("error", err),
				)
			}
		}
	}

	return client, nil
}

// 允许的图片类型与扩展名映射
var imageExtByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ErrImageFormat 表示 base64 图片数据格式非法或类型不允许。
var ErrImageFormat = errors.New("invalid image data")

// ErrImageTooLarge 表示图片超过配置的大小上限。
var ErrImageTooLarge = errors.New("image too large")

// UploadBase64Image 上传 data URL 形式的 base64 图片（data:image/png;base64,xxxx），
// 返回外部可访问的 URL。对象名按 {dir}/{uuid}{ext} 生成，避免覆盖。
func (m *MinIOClient) UploadBase64Image(ctx context.Context, dir, dataURL string) (string, error) {
	contentType, payload, ok := strings.Cut(dataURL, ";base64,")
	if !ok || !strings.HasPrefix(contentType, "data:") {
		return "", ErrImageFormat
	}
	contentType = strings.TrimPrefix(contentType, "data:")

	ext, allowed := imageExtByType[contentType]
	if !allowed {
		return "", ErrImageFormat
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", ErrImageFormat
	}
	if int64(len(raw)) > m.config.MaxFileSize {
		return "", ErrImageTooLarge
	}

	objectName := fmt.Sprintf("%s/%s%s", strings.Trim(dir, "/"), uuid.New().String(), ext)

	uploadCtx, cancel := context.WithTimeout(ctx, m.config.UploadTimeout)
	defer cancel()

	_, err = m.client.PutObject(uploadCtx, m.config.BucketName, objectName,
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(m.config.BaseURL, "/"), m.config.BucketName, objectName), nil
}
