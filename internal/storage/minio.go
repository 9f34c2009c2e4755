package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"consultant-match-go/internal/config"
	"consultant-match-go/internal/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ResumeStore is the object-storage interface for consultant resume files.
type ResumeStore interface {
	// UploadResume stores a resume file under the consultant ID and returns
	// the object key.
	UploadResume(ctx context.Context, consultantID, fileExt string, reader io.Reader, fileSize int64) (string, error)

	// HasResume reports whether a resume object exists for the consultant.
	HasResume(ctx context.Context, consultantID string) (bool, error)

	// GetResume downloads a stored resume file.
	GetResume(ctx context.Context, consultantID string) ([]byte, error)

	// RemoveResume deletes the resume object for the consultant, a no-op
	// when none exists.
	RemoveResume(ctx context.Context, consultantID string) error
}

var _ ResumeStore = (*MinIO)(nil)

// MinIO stores resume files in a single bucket keyed by consultant ID.
type MinIO struct {
	client *minio.Client
	cfg    *config.MinIOConfig
	bucket string
}

// NewMinIO creates a MinIO client and ensures the resume bucket exists.
func NewMinIO(cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("minio config cannot be nil")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create MinIO client: %w", err)
	}

	bucket := cfg.ResumesBucket
	if bucket == "" {
		bucket = "resumes"
	}

	m := &MinIO{
		client: client,
		cfg:    cfg,
		bucket: bucket,
	}

	if err := m.ensureBucketExists(bucket, cfg.Location); err != nil {
		return nil, fmt.Errorf("ensure bucket %s exists: %w", bucket, err)
	}

	logger.Debug().Str("endpoint", cfg.Endpoint).Str("bucket", bucket).Msg("MinIO client initialized")
	return m, nil
}

func (m *MinIO) ensureBucketExists(bucketName, location string) error {
	exists, err := m.client.BucketExists(context.Background(), bucketName)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", bucketName, err)
	}
	if !exists {
		if err := m.client.MakeBucket(context.Background(), bucketName, minio.MakeBucketOptions{Region: location}); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucketName, err)
		}
		logger.Info().Str("bucket", bucketName).Msg("created resume bucket")
	}
	return nil
}

// resumeObjectKey pins the object layout: one resume per consultant,
// addressed by consultant ID only so lookups never need a file listing.
func resumeObjectKey(consultantID string) string {
	return fmt.Sprintf("resumes/%s.pdf", consultantID)
}

// UploadResume stores a resume file for a consultant, replacing any
// previous one.
func (m *MinIO) UploadResume(ctx context.Context, consultantID, fileExt string, reader io.Reader, fileSize int64) (string, error) {
	if consultantID == "" {
		return "", fmt.Errorf("consultant ID is required")
	}

	objectKey := resumeObjectKey(consultantID)
	contentType := "application/pdf"
	if fileExt != "" && fileExt != ".pdf" {
		contentType = "application/octet-stream"
	}

	_, err := m.client.PutObject(ctx, m.bucket, objectKey, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload resume %s: %w", objectKey, err)
	}

	logger.Debug().Str("object", objectKey).Int64("size", fileSize).Msg("resume uploaded")
	return objectKey, nil
}

// HasResume reports whether a resume object exists for the consultant.
// Object-not-found is a regular false, not an error.
func (m *MinIO) HasResume(ctx context.Context, consultantID string) (bool, error) {
	if consultantID == "" {
		return false, nil
	}

	_, err := m.client.StatObject(ctx, m.bucket, resumeObjectKey(consultantID), minio.StatObjectOptions{})
	if err != nil {
		var errResp minio.ErrorResponse
		if errors.As(err, &errResp) && errResp.Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("stat resume for %s: %w", consultantID, err)
	}
	return true, nil
}

// GetResume downloads the stored resume file for a consultant.
func (m *MinIO) GetResume(ctx context.Context, consultantID string) ([]byte, error) {
	objectKey := resumeObjectKey(consultantID)

	obj, err := m.client.GetObject(ctx, m.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get resume %s: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read resume %s: %w", objectKey, err)
	}
	return data, nil
}

// RemoveResume deletes the resume object for the consultant.
func (m *MinIO) RemoveResume(ctx context.Context, consultantID string) error {
	objectKey := resumeObjectKey(consultantID)
	if err := m.client.RemoveObject(ctx, m.bucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove resume %s: %w", objectKey, err)
	}
	return nil
}
