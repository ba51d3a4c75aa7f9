package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	bodies  [][]byte
	deleted []string
	err     error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(params.Body)
	f.puts = append(f.puts, params)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, f.err
}

func (f *fakeS3) HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.err
}

type fakePresigner struct {
	expires time.Duration
}

func (f *fakePresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.expires = opts.Expires
	return &v4.PresignedHTTPRequest{
		URL:    "https://" + aws.ToString(params.Bucket) + ".s3.amazonaws.com/" + aws.ToString(params.Key) + "?X-Amz-Signature=abc",
		Method: "GET",
	}, nil
}

func TestUploadExport(t *testing.T) {
	client := &fakeS3{}
	presigner := &fakePresigner{}
	u := newS3Uploader(client, presigner, "us-east-1", "exports-bucket")
	u.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }

	result, err := u.UploadExport(context.Background(), []byte("a,b\n1,2\n"), "user-1", "results.csv")
	require.NoError(t, err)

	require.Len(t, client.puts, 1)
	put := client.puts[0]
	assert.Equal(t, "exports-bucket", aws.ToString(put.Bucket))
	assert.Regexp(t, `^exports/2026/03/user-1/[0-9a-f-]{36}/results\.csv$`, aws.ToString(put.Key))
	assert.Equal(t, "text/csv; charset=utf-8", aws.ToString(put.ContentType))
	assert.Equal(t, `attachment; filename="results.csv"`, aws.ToString(put.ContentDisposition))
	assert.Equal(t, "export", put.Metadata["file-type"])
	assert.Equal(t, "a,b\n1,2\n", string(client.bodies[0]))

	assert.Equal(t, aws.ToString(put.Key), result.Key)
	assert.Contains(t, result.URL, "X-Amz-Signature")
	assert.EqualValues(t, 8, result.Size)
	assert.Equal(t, DefaultLinkTTL, presigner.expires)
	assert.Equal(t, time.Date(2026, 3, 5, 5, 6, 7, 0, time.UTC), result.ExpiresAt)
}

func TestUploadExport_DefaultsExtension(t *testing.T) {
	client := &fakeS3{}
	u := newS3Uploader(client, &fakePresigner{}, "us-east-1", "b")

	result, err := u.UploadExport(context.Background(), []byte("x"), "u", "results")
	require.NoError(t, err)
	assert.Regexp(t, `/results\.csv$`, result.Key)
}

func TestUploadExport_Error(t *testing.T) {
	u := newS3Uploader(&fakeS3{err: errors.New("denied")}, &fakePresigner{}, "us-east-1", "b")

	_, err := u.UploadExport(context.Background(), []byte("x"), "u", "r.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestDeleteAndCheckBucket(t *testing.T) {
	client := &fakeS3{}
	u := newS3Uploader(client, &fakePresigner{}, "us-east-1", "b")

	require.NoError(t, u.DeleteFile(context.Background(), "exports/x.csv"))
	assert.Equal(t, []string{"exports/x.csv"}, client.deleted)
	require.NoError(t, u.CheckBucketAccess(context.Background()))

	client.err = errors.New("no such bucket")
	assert.ErrorContains(t, u.CheckBucketAccess(context.Background()), "cannot access S3 bucket b")
}

func TestGetContentType(t *testing.T) {
	tests := []struct {
		extension string
		expected  string
	}{
		{".csv", "text/csv; charset=utf-8"},
		{".CSV", "text/csv; charset=utf-8"},
		{".json", "application/json"},
		{".xlsx", "application/octet-stream"},
		{"", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.extension, func(t *testing.T) {
			assert.Equal(t, tt.expected, getContentType(tt.extension))
		})
	}
}
