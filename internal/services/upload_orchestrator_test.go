package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"promoadmin/internal/models"
	"promoadmin/internal/session"
	"promoadmin/internal/validation"
)

type fakeUploader struct {
	calls []FileUpload
	// errs maps a call index to the error it returns.
	errs map[int]error
	// onErr runs before an error is returned, like the API client clearing its store.
	onErr func(error)
}

func (f *fakeUploader) UploadFile(ctx context.Context, u FileUpload) error {
	idx := len(f.calls)
	f.calls = append(f.calls, u)
	if err := f.errs[idx]; err != nil {
		if f.onErr != nil {
			f.onErr(err)
		}
		return err
	}
	return nil
}

func memItem(name, content string) UploadItem {
	return NewUploadItem(name, int64(len(content)), func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(content)), nil
	})
}

func imageMeta() UploadMetadata {
	return UploadMetadata{FileType: models.StaticFileTypePromotionImage}
}

func TestUploadAllCompletesInOrder(t *testing.T) {
	up := &fakeUploader{}
	o := NewUploadOrchestrator(up)
	items := []UploadItem{memItem("a.png", "a"), memItem("a.png", "b"), memItem("c.pdf", "c")}

	var events []UploadResult
	report, err := o.UploadAll(context.Background(), "p1", items, imageMeta(), func(r UploadResult) {
		events = append(events, r)
	})
	if err != nil {
		t.Fatalf("UploadAll: %v", err)
	}
	if !report.Refresh || report.Count(UploadComplete) != 3 {
		t.Fatalf("expected full success with refresh, got %+v", report)
	}
	if len(up.calls) != 3 || up.calls[2].Filename != "c.pdf" || up.calls[0].PromotionID != "p1" {
		t.Fatalf("unexpected calls %+v", up.calls)
	}

	// in_flight then complete per item, in submission order, keyed by item identity.
	if len(events) != 6 {
		t.Fatalf("expected 6 progress events, got %d", len(events))
	}
	for i, item := range items {
		if events[2*i].Key != item.Key || events[2*i].State != UploadInFlight {
			t.Fatalf("event %d: unexpected %+v", 2*i, events[2*i])
		}
		if events[2*i+1].Key != item.Key || events[2*i+1].State != UploadComplete {
			t.Fatalf("event %d: unexpected %+v", 2*i+1, events[2*i+1])
		}
	}
	if items[0].Key == items[1].Key {
		t.Fatalf("duplicate names must get distinct keys")
	}
}

func TestUploadAllAbortsOnUnauthorized(t *testing.T) {
	store := session.NewMemory("tok")
	up := &fakeUploader{
		errs:  map[int]error{1: ErrUnauthorized},
		onErr: func(error) { _ = store.Clear() },
	}
	o := NewUploadOrchestrator(up)
	items := []UploadItem{memItem("1.png", "1"), memItem("2.png", "2"), memItem("3.png", "3")}

	report, err := o.UploadAll(context.Background(), "p1", items, imageMeta(), nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected batch ErrUnauthorized, got %v", err)
	}
	want := []UploadState{UploadComplete, UploadFailed, UploadNotAttempted}
	for i, st := range want {
		if report.Results[i].State != st {
			t.Fatalf("file %d: expected %s got %s", i+1, st, report.Results[i].State)
		}
	}
	if report.Results[1].Reason != "unauthorized" {
		t.Fatalf("expected unauthorized reason, got %q", report.Results[1].Reason)
	}
	if report.Refresh {
		t.Fatalf("partial batch must not signal refresh")
	}
	if len(up.calls) != 2 {
		t.Fatalf("third file must not be attempted, got %d calls", len(up.calls))
	}
	if session.Authenticated(store) {
		t.Fatalf("expected unauthenticated session")
	}
}

func TestUploadAllContinuesAfterTransientFailure(t *testing.T) {
	up := &fakeUploader{errs: map[int]error{0: errors.New("bad gateway")}}
	o := NewUploadOrchestrator(up)

	report, err := o.UploadAll(context.Background(), "p1", []UploadItem{memItem("1.png", "1"), memItem("2.png", "2")}, imageMeta(), nil)
	if err != nil {
		t.Fatalf("transient per-file errors are not batch errors: %v", err)
	}
	if report.Results[0].State != UploadFailed || report.Results[1].State != UploadComplete {
		t.Fatalf("unexpected results %+v", report.Results)
	}
	if report.Results[0].Reason != "upload failed" || strings.Contains(report.Results[0].Reason, "gateway") {
		t.Fatalf("reason must not expose transport detail, got %q", report.Results[0].Reason)
	}
	if report.Refresh {
		t.Fatalf("refresh only after a fully successful batch")
	}
}

func TestUploadAllStopsOnCancelledContext(t *testing.T) {
	up := &fakeUploader{}
	o := NewUploadOrchestrator(up)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := o.UploadAll(ctx, "p1", []UploadItem{memItem("1.png", "1")}, imageMeta(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report.Results[0].State != UploadNotAttempted || len(up.calls) != 0 {
		t.Fatalf("expected nothing attempted, got %+v", report.Results)
	}
}

func TestUploadAllZeroOrderIsNotSent(t *testing.T) {
	up := &fakeUploader{}
	o := NewUploadOrchestrator(up)
	zero, two := 0, 2

	meta := imageMeta()
	meta.Order = &zero
	if _, err := o.UploadAll(context.Background(), "p1", []UploadItem{memItem("1.png", "1")}, meta, nil); err != nil {
		t.Fatalf("UploadAll: %v", err)
	}
	meta.Order = &two
	meta.Caption = "https://example.com/landing"
	if _, err := o.UploadAll(context.Background(), "p1", []UploadItem{memItem("2.png", "2")}, meta, nil); err != nil {
		t.Fatalf("UploadAll: %v", err)
	}

	if up.calls[0].Order != nil {
		t.Fatalf("order 0 must not be sent")
	}
	if up.calls[1].Order == nil || *up.calls[1].Order != 2 || up.calls[1].Caption != "https://example.com/landing" {
		t.Fatalf("unexpected second call %+v", up.calls[1])
	}
}

func TestValidateRejectsBeforeNetwork(t *testing.T) {
	negative := -1
	big := NewUploadItem("big.png", MaxUploadSize+1, func(ctx context.Context) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader("")), nil
	})
	cases := []struct {
		name  string
		items []UploadItem
		meta  UploadMetadata
		field string
	}{
		{"empty selection", nil, imageMeta(), "files"},
		{"missing category", []UploadItem{memItem("a.png", "a")}, UploadMetadata{}, "file_type"},
		{"unknown category", []UploadItem{memItem("a.png", "a")}, UploadMetadata{FileType: "banner"}, "file_type"},
		{"too large", []UploadItem{big}, imageMeta(), "files[0]"},
		{"bad extension", []UploadItem{memItem("a.png", "a"), memItem("run.exe", "x")}, imageMeta(), "files[1]"},
		{"negative order", []UploadItem{memItem("a.png", "a")}, UploadMetadata{FileType: models.StaticFileTypeDocument, Order: &negative}, "order"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			up := &fakeUploader{}
			_, err := NewUploadOrchestrator(up).UploadAll(context.Background(), "p1", c.items, c.meta, nil)
			var verr *validation.Error
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := verr.Fields[c.field]; !ok {
				t.Fatalf("expected %s error, got %v", c.field, verr.Fields)
			}
			if len(up.calls) != 0 {
				t.Fatalf("no upload may happen on validation failure")
			}
		})
	}
}

func TestAllowedUploadExtension(t *testing.T) {
	for _, name := range []string{"a.JPG", "b.jpeg", "c.png", "d.gif", "e.webp", "f.pdf", "g.doc", "h.DOCX"} {
		if !AllowedUploadExtension(name) {
			t.Errorf("%s should be allowed", name)
		}
	}
	for _, name := range []string{"a.svg", "b", "c.exe", "d.png.zip"} {
		if AllowedUploadExtension(name) {
			t.Errorf("%s should be rejected", name)
		}
	}
}

func TestUploadAllThroughGatewayClearsSessionOnUnauthorized(t *testing.T) {
	var uploads int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		if uploads == 2 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := session.NewMemory("tok")
	client := NewPromoAPIClient(srv.URL, store)
	items := []UploadItem{memItem("1.png", "1"), memItem("2.png", "2"), memItem("3.png", "3")}

	report, err := NewUploadOrchestrator(client).UploadAll(context.Background(), "p1", items, imageMeta(), nil)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	got := []UploadState{report.Results[0].State, report.Results[1].State, report.Results[2].State}
	if got[0] != UploadComplete || got[1] != UploadFailed || got[2] != UploadNotAttempted {
		t.Fatalf("unexpected states %v", got)
	}
	if uploads != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", uploads)
	}
	if client.IsAuthenticated() || session.Authenticated(store) {
		t.Fatalf("session must be unauthenticated after a rejected credential")
	}
}
