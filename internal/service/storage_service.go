package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"engage_backend/internal/config"
	"engage_backend/internal/util"
)

// StoredFile 上传结果
type StoredFile struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Kind string `json:"kind"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// StorageProvider 文件落地后端,本地磁盘或 MinIO
type StorageProvider interface {
	Store(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)
}

type StorageService struct {
	provider StorageProvider
	logger   *zap.Logger
}

func NewStorageService(cfg *config.StorageConfig, logger *zap.Logger) (*StorageService, error) {
	var provider StorageProvider
	switch cfg.Type {
	case "minio":
		client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
			Secure: cfg.MinioUseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client init failed: %w", err)
		}
		provider = &minioProvider{client: client, bucket: cfg.MinioBucket, baseURL: cfg.PublicBaseURL}
	default:
		provider = &localProvider{root: cfg.LocalPath, baseURL: cfg.PublicBaseURL}
	}
	return &StorageService{provider: provider, logger: logger}, nil
}

// SaveUpload 校验扩展名和 MIME 后保存上传文件。对象名带日期前缀和随机段,避免覆盖。
func (s *StorageService) SaveUpload(ctx context.Context, header *multipart.FileHeader) (*StoredFile, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !util.IsAllowedDocumentExtension(header.Filename) {
		return nil, fmt.Errorf("file type %s is not allowed", ext)
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	contentType, err := util.ValidateMimeType(file, []string{"image/", "application/", "text/"})
	if err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("uploads/%s/%s%s",
		time.Now().Format("2006-01-02"),
		strings.ReplaceAll(uuid.New().String(), "-", ""),
		ext)

	url, err := s.provider.Store(ctx, objectName, file, header.Size, contentType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("file stored",
		zap.String("object", objectName),
		zap.Int64("size", header.Size))
	kind := "document"
	if util.IsImage(contentType) {
		kind = "image"
	}
	return &StoredFile{
		URL:  url,
		Type: contentType,
		Kind: kind,
		Name: header.Filename,
		Size: header.Size,
	}, nil
}

type localProvider struct {
	root    string
	baseURL string
}

func (p *localProvider) Store(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (string, error) {
	path := filepath.Join(p.root, filepath.FromSlash(objectName))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}
	return strings.TrimRight(p.baseURL, "/") + "/" + objectName, nil
}

type minioProvider struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func (p *minioProvider) Store(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.client.PutObject(ctx, p.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	if p.baseURL != "" {
		return strings.TrimRight(p.baseURL, "/") + "/" + objectName, nil
	}
	return fmt.Sprintf("%s/%s/%s", p.client.EndpointURL(), p.bucket, objectName), nil
}
