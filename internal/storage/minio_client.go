package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"moviemeter/internal/config"
	"moviemeter/internal/logging"
)

var ErrObjectNotFound = errors.New("object not found")

type Storage interface {
	UploadImage(ctx context.Context, folder string, fileName string, file io.Reader, size int64) (string, error)
	DeleteImage(ctx context.Context, objectName string) error
	OpenImage(ctx context.Context, objectName string) (io.ReadCloser, string, int64, error)
}

type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg *config.Config) (*MinIOClient, error) {
	client, err := minio.New(cfg.MinIO.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, ""),
		Secure: cfg.MinIO.UseSSL,
		Region: cfg.MinIO.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating MinIO client: %w", err)
	}

	bucket := cfg.MinIO.BucketName

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("error checking bucket %s: %w", bucket, err)
	}

	if !exists {
		err = client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: cfg.MinIO.Region})
		if err != nil {
			return nil, fmt.Errorf("error creating bucket %s: %w", bucket, err)
		}
		logging.Info().Str("bucket", bucket).Msg("created MinIO bucket")
	}

	return &MinIOClient{client: client, bucket: bucket}, nil
}

// ObjectName builds "<folder>/YYYY/MM/<uuid><ext>" for an uploaded file.
func ObjectName(folder, fileName string, now time.Time) string {
	return fmt.Sprintf("%s/%d/%02d/%s%s",
		folder,
		now.Year(),
		now.Month(),
		uuid.New().String(),
		imageExt(fileName))
}

func imageExt(fileName string) string {
	fileExt := strings.ToLower(filepath.Ext(fileName))
	if fileExt == "" {
		fileExt = ".jpg"
	}
	return fileExt
}

func (m *MinIOClient) UploadImage(ctx context.Context, folder string, fileName string, file io.Reader, size int64) (string, error) {
	fileExt := imageExt(fileName)

	contentType := mime.TypeByExtension(fileExt)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := time.Now()
	objectName := ObjectName(folder, fileName, now)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, file, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"original-filename": fileName,
				"uploaded-at":       now.Format(time.RFC3339),
			},
		})
	if err != nil {
		return "", fmt.Errorf("error uploading to MinIO: %w", err)
	}

	return objectName, nil
}

func (m *MinIOClient) DeleteImage(ctx context.Context, objectName string) error {
	err := m.client.RemoveObject(ctx, m.bucket, objectName,
		minio.RemoveObjectOptions{
			GovernanceBypass: true,
		})
	if err != nil {
		return fmt.Errorf("error deleting from MinIO: %w", err)
	}
	return nil
}

// OpenImage returns the object body with its content type and size.
// The caller closes the reader.
func (m *MinIOClient) OpenImage(ctx context.Context, objectName string) (io.ReadCloser, string, int64, error) {
	object, err := m.client.GetObject(ctx, m.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, "", 0, fmt.Errorf("error reading from MinIO: %w", err)
	}

	info, err := object.Stat()
	if err != nil {
		object.Close()
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, "", 0, fmt.Errorf("%s: %w", objectName, ErrObjectNotFound)
		}
		return nil, "", 0, fmt.Errorf("error reading from MinIO: %w", err)
	}

	return object, info.ContentType, info.Size, nil
}
