package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// FromFileHeader wraps a browser-uploaded multipart file.
func FromFileHeader(fh *multipart.FileHeader) UploadItem {
	return NewUploadItem(fh.Filename, fh.Size, func(ctx context.Context) (io.ReadCloser, error) {
		return fh.Open()
	})
}

type AssetObjectAPI interface {
	manager.DownloadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// AssetSource reads upload candidates from the marketing asset bucket.
type AssetSource struct {
	client AssetObjectAPI
	bucket string
}

func NewAssetSource(client AssetObjectAPI, bucket string) *AssetSource {
	return &AssetSource{client: client, bucket: bucket}
}

func (s *AssetSource) Bucket() string { return s.bucket }

// Items looks up each key so size and extension checks can run before any
// bytes are transferred. Objects are downloaded lazily when the orchestrator
// opens them.
func (s *AssetSource) Items(ctx context.Context, keys []string) ([]UploadItem, error) {
	items := make([]UploadItem, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimLeft(strings.TrimSpace(key), "/")
		if key == "" {
			return nil, errors.New("asset key is required")
		}
		head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", key, err)
		}
		items = append(items, NewUploadItem(path.Base(key), aws.ToInt64(head.ContentLength), s.opener(key)))
	}
	return items, nil
}

func (s *AssetSource) opener(key string) func(ctx context.Context) (io.ReadCloser, error) {
	return func(ctx context.Context) (io.ReadCloser, error) {
		buf := manager.NewWriteAtBuffer(nil)
		downloader := manager.NewDownloader(s.client)
		if _, err := downloader.Download(ctx, buf, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return nil, fmt.Errorf("download asset %s: %w", key, err)
		}
		return io.NopCloser(bytes.NewReader(buf.Bytes())), nil
	}
}
