package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeAssetBucket struct {
	objects map[string][]byte
}

func (f *fakeAssetBucket) GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
	}, nil
}

func (f *fakeAssetBucket) HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(data)))}, nil
}

func TestAssetSourceItemsAndDownload(t *testing.T) {
	bucket := &fakeAssetBucket{objects: map[string][]byte{
		"summer/banner.png": []byte("png-bytes"),
	}}
	src := NewAssetSource(bucket, "assets")

	items, err := src.Items(context.Background(), []string{"/summer/banner.png"})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 1 || items[0].Name != "banner.png" || items[0].Size != int64(len("png-bytes")) || items[0].Key == "" {
		t.Fatalf("unexpected items %+v", items)
	}

	rc, err := items[0].Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if string(got) != "png-bytes" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestAssetSourceMissingKey(t *testing.T) {
	src := NewAssetSource(&fakeAssetBucket{objects: map[string][]byte{}}, "assets")
	if _, err := src.Items(context.Background(), []string{"missing.png"}); err == nil {
		t.Fatalf("expected error for missing key")
	}
	if _, err := src.Items(context.Background(), []string{" "}); err == nil {
		t.Fatalf("expected error for blank key")
	}
}

func TestAssetSourceFeedsOrchestrator(t *testing.T) {
	bucket := &fakeAssetBucket{objects: map[string][]byte{"a.pdf": []byte("pdf")}}
	items, err := NewAssetSource(bucket, "assets").Items(context.Background(), []string{"a.pdf"})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	up := &fakeUploader{}
	report, err := NewUploadOrchestrator(up).UploadAll(context.Background(), "p1", items, imageMeta(), nil)
	if err != nil || !report.Refresh {
		t.Fatalf("UploadAll: %+v %v", report, err)
	}
	if up.calls[0].Filename != "a.pdf" {
		t.Fatalf("unexpected call %+v", up.calls[0])
	}
}
