package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"promoadmin/internal/metrics"
	"promoadmin/internal/models"
	"promoadmin/internal/promotions"
	"promoadmin/internal/session"
	"promoadmin/internal/staticfiles"
)

// ErrUnauthorized is returned when the promotion API rejects the credential.
// The session store has already been cleared when a caller sees it.
var ErrUnauthorized = errors.New("promo api: unauthorized")

type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("promo api %s failed: status=%d body=%s", e.Op, e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a 404 from the promotion API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type ListPromotionsOptions struct {
	IncludeInactive bool
	ParentID        string
}

type FileUpload struct {
	PromotionID string
	FileType    models.StaticFileType
	Caption     string
	Order       *int
	Filename    string
	Content     io.Reader
}

// FileUpdate replaces metadata and, when Content is set, the bytes of an
// existing file.
type FileUpdate struct {
	FileID      string
	PromotionID string
	FileType    models.StaticFileType
	Caption     string
	Order       *int
	Filename    string
	Content     io.Reader
}

// PromoAPIClient is the single gateway to the promotion REST API. It is the
// only writer of its session store.
type PromoAPIClient struct {
	baseURL    string
	httpClient *http.Client
	store      session.Store
}

func NewPromoAPIClient(baseURL string, store session.Store) *PromoAPIClient {
	if store == nil {
		store = session.NewMemory("")
	}
	return &PromoAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
	}
}

func (c *PromoAPIClient) SetHTTPClient(hc *http.Client) {
	if hc != nil {
		c.httpClient = hc
	}
}

// WithStore returns a copy of the client bound to store. The HTTP client is shared.
func (c *PromoAPIClient) WithStore(store session.Store) *PromoAPIClient {
	cp := *c
	cp.store = store
	return &cp
}

func (c *PromoAPIClient) BaseURL() string { return c.baseURL }

func (c *PromoAPIClient) Token() string { return c.store.Token() }

func (c *PromoAPIClient) IsAuthenticated() bool { return session.Authenticated(c.store) }

func (c *PromoAPIClient) Login(ctx context.Context, username, password string) (*models.BearerResponse, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil, errors.New("username/password are required")
	}

	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	var out models.BearerResponse
	if err := c.do(ctx, "login", http.MethodPost, "/auth/jwt/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.AccessToken) == "" {
		return nil, errors.New("promo api login response did not include token")
	}
	if err := c.store.SetToken(out.AccessToken); err != nil {
		return nil, fmt.Errorf("persist token: %w", err)
	}
	return &out, nil
}

func (c *PromoAPIClient) Logout() error {
	return c.store.Clear()
}

func (c *PromoAPIClient) ListPromotions(ctx context.Context, opts ListPromotionsOptions) ([]models.Promotion, error) {
	q := url.Values{}
	if opts.IncludeInactive {
		q.Set("include_inactive", "true")
	}
	if opts.ParentID != "" {
		q.Set("parent_id", opts.ParentID)
	}
	path := "/promotions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []models.Promotion
	if err := c.do(ctx, "list promotions", http.MethodGet, path, nil, "", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Promotion{}
	}
	return out, nil
}

// GetPromotion lists every promotion, inactive included, and picks id. The
// API has no single-promotion endpoint.
func (c *PromoAPIClient) GetPromotion(ctx context.Context, id string) (*models.Promotion, error) {
	all, err := c.ListPromotions(ctx, ListPromotionsOptions{IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	return promotions.Find(all, id)
}

func (c *PromoAPIClient) CreatePromotion(ctx context.Context, p models.PromotionCreate) (*models.Promotion, error) {
	body, err := json.Marshal([]models.PromotionCreate{p})
	if err != nil {
		return nil, err
	}
	var out []models.Promotion
	if err := c.do(ctx, "create promotion", http.MethodPost, "/promotions", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("promo api create promotion: empty response")
	}
	return &out[0], nil
}

func (c *PromoAPIClient) UpdatePromotion(ctx context.Context, p models.PromotionUpdate) (*models.Promotion, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var out models.Promotion
	if err := c.do(ctx, "update promotion", http.MethodPut, "/promotions", bytes.NewReader(body), "application/json", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *PromoAPIClient) DeletePromotion(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("promotion id is required")
	}
	return c.do(ctx, "delete promotion", http.MethodDelete, "/promotions/"+url.PathEscape(id), nil, "", nil)
}

func (c *PromoAPIClient) UploadFile(ctx context.Context, f FileUpload) error {
	if f.Content == nil {
		return errors.New("file content is required")
	}
	body, contentType, err := buildFileForm(func(mw *multipart.Writer) error {
		if err := writeFilePart(mw, f.Filename, f.Content); err != nil {
			return err
		}
		return writeFileFields(mw, f.PromotionID, f.FileType, f.Caption, f.Order)
	})
	if err != nil {
		return err
	}
	return c.do(ctx, "upload file", http.MethodPost, "/static/upload/single", body, contentType, nil)
}

func (c *PromoAPIClient) UpdateFile(ctx context.Context, f FileUpdate) error {
	if strings.TrimSpace(f.FileID) == "" {
		return errors.New("file id is required")
	}
	body, contentType, err := buildFileForm(func(mw *multipart.Writer) error {
		if err := mw.WriteField("file_id", f.FileID); err != nil {
			return err
		}
		if f.Content != nil {
			if err := writeFilePart(mw, f.Filename, f.Content); err != nil {
				return err
			}
		}
		return writeFileFields(mw, f.PromotionID, f.FileType, f.Caption, f.Order)
	})
	if err != nil {
		return err
	}
	return c.do(ctx, "update file", http.MethodPut, "/static/update/single", body, contentType, nil)
}

// DeleteFile accepts either a file id or a storage path; paths are reduced
// with staticfiles.DeriveFileID.
func (c *PromoAPIClient) DeleteFile(ctx context.Context, pathOrID string) error {
	fileID := staticfiles.DeriveFileID(pathOrID)
	if fileID == "" {
		return errors.New("file id is required")
	}
	return c.do(ctx, "delete file", http.MethodDelete, "/static/files/"+url.PathEscape(fileID), nil, "", nil)
}

func (c *PromoAPIClient) DeleteFiles(ctx context.Context, fileIDs []string) error {
	if len(fileIDs) == 0 {
		return errors.New("file ids are required")
	}
	body, err := json.Marshal(map[string][]string{"file_ids": fileIDs})
	if err != nil {
		return err
	}
	return c.do(ctx, "delete files", http.MethodDelete, "/static", bytes.NewReader(body), "application/json", nil)
}

func (c *PromoAPIClient) FileURL(promotionID string, fileType models.StaticFileType, fileName string) string {
	return fmt.Sprintf("%s/static/%s/%s/%s", c.baseURL, promotionID, fileType, fileName)
}

func (c *PromoAPIClient) BuildFileURL(filePath string) string {
	return staticfiles.BuildFileURL(c.baseURL, filePath)
}

func (c *PromoAPIClient) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := strings.TrimSpace(c.store.Token()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.PromoAPIRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PromoAPIRequestsTotal.WithLabelValues(op, "error").Inc()
		return fmt.Errorf("promo api %s: %w", op, err)
	}
	defer resp.Body.Close()
	metrics.PromoAPIRequestsTotal.WithLabelValues(op, strconv.Itoa(resp.StatusCode)).Inc()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized {
		metrics.SessionsExpiredTotal.Inc()
		if err := c.store.Clear(); err != nil {
			log.Printf("promo api %s: failed to clear session: %v", op, err)
		}
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("promo api %s: invalid json: %w", op, err)
	}
	return nil
}

func buildFileForm(write func(*multipart.Writer) error) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := write(mw); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writeFilePart(mw *multipart.Writer, filename string, content io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{"name": "file", "filename": filename}))
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = io.Copy(part, content)
	return err
}

func writeFileFields(mw *multipart.Writer, promotionID string, fileType models.StaticFileType, caption string, order *int) error {
	if err := mw.WriteField("promotion_id", promotionID); err != nil {
		return err
	}
	if err := mw.WriteField("file_type", string(fileType)); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	if order != nil {
		if err := mw.WriteField("order", strconv.Itoa(*order)); err != nil {
			return err
		}
	}
	return nil
}
