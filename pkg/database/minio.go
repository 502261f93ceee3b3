package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"chat_delivery_service/pkg/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// ErrObjectNotFound object key absent in the bucket
var ErrObjectNotFound = errors.New("minio: object not found")

// ObjectInfo subset of the stat result used by file messages
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// MinIOClientRepo definition object store used by completed uploads
type MinIOClientRepo interface {
	StatObject(ctx context.Context, objectName string) (ObjectInfo, error)
	PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// MinIOClient definition minio client
type MinIOClient struct {
	Client     *minio.Client
	BucketName string
}

// NewMinIOConnection create a new minio connection have retry
func NewMinIOConnection(d MinIOConnection) (*MinIOClient, error) {
	var mc *MinIOClient
	var err error

	for i := 1; i <= max(d.RetryCount, 1); i++ {
		mc, err = NewMinioClient(d.Endpoint, d.User, d.Password, d.BucketName, d.UseSSL)
		if err == nil {
			logger.Log.Info("minio connected", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i))
			return mc, nil
		}

		logger.Log.Warn("minio connect failed, retrying...", zap.String("endpoint", d.Endpoint), zap.Int("attempt", i), zap.Error(err))
		time.Sleep(d.RetryInterval * time.Second)
	}

	return nil, err
}

// NewMinioClient create a new minio client, the bucket is created when missing
func NewMinioClient(endpoint, accessKey, secretKey, bucketName string, useSSL bool) (*MinIOClient, error) {
	minioClient, err := minio.New(endpoint,
		&minio.Options{
			Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
			Secure: useSSL,
		})
	if err != nil {
		return nil, fmt.Errorf("init minio: %w", err)
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("check bucket [%s]: %w", bucketName, err)
	}

	if !exists {
		if err = minioClient.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket [%s]: %w", bucketName, err)
		}
		logger.Log.Info("bucket created", zap.String("bucket", bucketName))
	}

	return &MinIOClient{
		Client:     minioClient,
		BucketName: bucketName,
	}, nil
}

// StatObject check a completed upload exists
func (m *MinIOClient) StatObject(ctx context.Context, objectName string) (ObjectInfo, error) {
	info, err := m.Client.StatObject(ctx, m.BucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, fmt.Errorf("stat object %s: %w", objectName, err)
	}
	return ObjectInfo{Key: info.Key, Size: info.Size, ContentType: info.ContentType}, nil
}

// PresignGetURL 生成一個 Presigned URL 用來獲取指定的 object
func (m *MinIOClient) PresignGetURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presignedURL, err := m.Client.PresignedGetObject(ctx, m.BucketName, objectName, expiry, make(url.Values))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", objectName, err)
	}
	return presignedURL.String(), nil
}
