package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"promoadmin/internal/metrics"
	"promoadmin/internal/models"
	"promoadmin/internal/validation"
)

const MaxUploadSize = 10 << 20 // 10 MiB per file

var allowedUploadExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

// AllowedUploadExtension reports whether name has an accepted extension.
func AllowedUploadExtension(name string) bool {
	return allowedUploadExtensions[strings.ToLower(filepath.Ext(name))]
}

// UploadItem is one selected file. Key identifies the item for progress
// reporting, so two files with the same name stay distinguishable.
type UploadItem struct {
	Key  string
	Name string
	Size int64
	Open func(ctx context.Context) (io.ReadCloser, error)
}

func NewUploadItem(name string, size int64, open func(ctx context.Context) (io.ReadCloser, error)) UploadItem {
	return UploadItem{Key: uuid.NewString(), Name: name, Size: size, Open: open}
}

type UploadMetadata struct {
	FileType models.StaticFileType `json:"file_type" validate:"required,oneof=promotion_image partner_image document promotion_logo promotion_logo_mobile"`
	Caption  string                `json:"caption"`
	Order    *int                  `json:"order" validate:"omitempty,min=0"`
}

type UploadState string

const (
	UploadPending      UploadState = "pending"
	UploadInFlight     UploadState = "in_flight"
	UploadComplete     UploadState = "complete"
	UploadFailed       UploadState = "failed"
	UploadNotAttempted UploadState = "not_attempted"
)

type UploadResult struct {
	Key   string      `json:"key"`
	Name  string      `json:"name"`
	State UploadState `json:"state"`
	// Reason is a short, user-facing failure reason.
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

type UploadReport struct {
	Results []UploadResult `json:"results"`
	// Refresh is set when the whole batch completed and the promotion's files
	// should be fetched again.
	Refresh bool `json:"refresh"`
}

// Count returns how many results are in state s.
func (r *UploadReport) Count(s UploadState) int {
	n := 0
	for _, res := range r.Results {
		if res.State == s {
			n++
		}
	}
	return n
}

type FileUploader interface {
	UploadFile(ctx context.Context, f FileUpload) error
}

type UploadOrchestrator struct {
	uploader FileUploader
	v        *validator.Validate
}

func NewUploadOrchestrator(uploader FileUploader) *UploadOrchestrator {
	return &UploadOrchestrator{uploader: uploader, v: validation.New()}
}

// Validate runs every pre-submission check. It never touches the network.
func (o *UploadOrchestrator) Validate(items []UploadItem, meta UploadMetadata) error {
	fields := map[string]string{}
	if err := validation.Struct(o.v, meta); err != nil {
		var verr *validation.Error
		if !errors.As(err, &verr) {
			return err
		}
		for k, msg := range verr.Fields {
			fields[k] = msg
		}
	}
	if len(items) == 0 {
		fields["files"] = "select at least one file"
	}
	for i, item := range items {
		key := fmt.Sprintf("files[%d]", i)
		switch {
		case !AllowedUploadExtension(item.Name):
			fields[key] = fmt.Sprintf("%s: unsupported file type", item.Name)
		case item.Size > MaxUploadSize:
			fields[key] = fmt.Sprintf("%s: larger than 10MB", item.Name)
		case item.Open == nil:
			fields[key] = fmt.Sprintf("%s: unreadable", item.Name)
		}
	}
	if len(fields) > 0 {
		return &validation.Error{Fields: fields}
	}
	return nil
}

// UploadAll validates the batch and uploads it one file at a time in order.
// onProgress, when set, sees every state change in submission order.
//
// A rejected credential stops the batch: the failing file is marked failed,
// the rest not_attempted, and ErrUnauthorized is returned alongside the
// report. Files already uploaded stay uploaded. Any other per-file error
// marks only that file failed.
func (o *UploadOrchestrator) UploadAll(ctx context.Context, promotionID string, items []UploadItem, meta UploadMetadata, onProgress func(UploadResult)) (*UploadReport, error) {
	if strings.TrimSpace(promotionID) == "" {
		return nil, validation.Field("promotion_id", "is required")
	}
	if err := o.Validate(items, meta); err != nil {
		return nil, err
	}

	notify := func(r UploadResult) {
		if onProgress != nil {
			onProgress(r)
		}
	}

	report := &UploadReport{Results: make([]UploadResult, len(items))}
	for i, item := range items {
		report.Results[i] = UploadResult{Key: item.Key, Name: item.Name, State: UploadPending}
	}

	// The upload form sends order only when it is non-zero.
	order := meta.Order
	if order != nil && *order == 0 {
		order = nil
	}

	var batchErr error
	for i, item := range items {
		res := &report.Results[i]

		if err := ctx.Err(); err != nil {
			batchErr = err
			abortRemaining(report, i, notify)
			break
		}

		res.State = UploadInFlight
		notify(*res)

		err := o.uploadOne(ctx, promotionID, item, meta, order)
		switch {
		case err == nil:
			res.State = UploadComplete
		case errors.Is(err, ErrUnauthorized):
			res.State = UploadFailed
			res.Reason = "unauthorized"
			res.Err = err
			batchErr = err
		default:
			res.State = UploadFailed
			res.Reason = "upload failed"
			res.Err = err
			log.Printf("Failed to upload file %s for promotion %s: %v", item.Name, promotionID, err)
		}
		metrics.FileUploadsTotal.WithLabelValues(string(meta.FileType), string(res.State)).Inc()
		notify(*res)

		if batchErr != nil {
			abortRemaining(report, i+1, notify)
			break
		}
	}

	report.Refresh = batchErr == nil && report.Count(UploadComplete) == len(items)
	return report, batchErr
}

func (o *UploadOrchestrator) uploadOne(ctx context.Context, promotionID string, item UploadItem, meta UploadMetadata, order *int) error {
	rc, err := item.Open(ctx)
	if err != nil {
		return fmt.Errorf("open %s: %w", item.Name, err)
	}
	defer rc.Close()

	return o.uploader.UploadFile(ctx, FileUpload{
		PromotionID: promotionID,
		FileType:    meta.FileType,
		Caption:     meta.Caption,
		Order:       order,
		Filename:    item.Name,
		Content:     rc,
	})
}

func abortRemaining(report *UploadReport, from int, notify func(UploadResult)) {
	for j := from; j < len(report.Results); j++ {
		report.Results[j].State = UploadNotAttempted
		notify(report.Results[j])
	}
}
