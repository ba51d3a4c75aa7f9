package storage

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/zfogg/formdesk/internal/telemetry"
)

// DefaultLinkTTL is how long a presigned download link stays valid.
const DefaultLinkTTL = 24 * time.Hour

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Uploader handles export file uploads to AWS S3. Objects stay private;
// callers get a presigned link.
type S3Uploader struct {
	client    s3API
	presigner presignAPI
	bucket    string
	region    string
	linkTTL   time.Duration
	now       func() time.Time
}

// UploadResult contains the result of an S3 upload
type UploadResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Bucket    string    `json:"bucket"`
	Region    string    `json:"region"`
	Size      int64     `json:"size"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(ctx context.Context, region, bucket string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)
	return newS3Uploader(client, s3.NewPresignClient(client), region, bucket), nil
}

func newS3Uploader(client s3API, presigner presignAPI, region, bucket string) *S3Uploader {
	return &S3Uploader{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		region:    region,
		linkTTL:   DefaultLinkTTL,
		now:       time.Now,
	}
}

// UploadExport uploads an export file and presigns a download link for it.
func (u *S3Uploader) UploadExport(ctx context.Context, data []byte, userID, filename string) (*UploadResult, error) {
	extension := filepath.Ext(filename)
	if extension == "" {
		extension = ".csv"
		filename += extension
	}

	// exports/{year}/{month}/{userID}/{fileID}/{filename}
	now := u.now().UTC()
	key := fmt.Sprintf("exports/%d/%02d/%s/%s/%s",
		now.Year(), now.Month(), userID, uuid.New().String(), filename)

	ctx, span := telemetry.TraceExternalCall(ctx, telemetry.ExternalServiceCallAttrs{
		Service:    "s3",
		Operation:  "upload_export",
		ResourceID: key,
	})
	defer span.End()

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(u.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(getContentType(extension)),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
		Metadata: map[string]string{
			"user-id":          userID,
			"upload-timestamp": now.Format(time.RFC3339),
			"file-type":        "export",
		},
	})
	if err != nil {
		telemetry.RecordExternalCallError(span, err)
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	req, err := u.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(u.linkTTL))
	if err != nil {
		telemetry.RecordExternalCallError(span, err)
		return nil, fmt.Errorf("failed to presign export link: %w", err)
	}
	telemetry.RecordExternalCallSuccess(span, int64(len(data)))

	return &UploadResult{
		Key:       key,
		URL:       req.URL,
		Bucket:    u.bucket,
		Region:    u.region,
		Size:      int64(len(data)),
		ExpiresAt: now.Add(u.linkTTL),
	}, nil
}

// DeleteFile deletes a file from S3
func (u *S3Uploader) DeleteFile(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(u.bucket),
	})
	if err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}

	return nil
}

// getContentType returns the appropriate MIME type for file extensions
func getContentType(extension string) string {
	switch strings.ToLower(extension) {
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
