package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"promoadmin/internal/config"
	"promoadmin/internal/interfaces"
	"promoadmin/internal/middleware"
	"promoadmin/internal/models"
	"promoadmin/internal/services"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

// fakePromoAPI is an in-memory promotion API. Requests must carry token as
// bearer unless they are logins.
type fakePromoAPI struct {
	mu         sync.Mutex
	token      string
	promotions []models.Promotion

	// uploadStatus, when set, decides the status of the n-th upload (0-based).
	uploadStatus func(n int) int
	uploads      []string
	updatedFiles []string
	deleted      []string
	batchDeleted [][]string
	created      []models.PromotionCreate
	updated      []models.PromotionUpdate
}

func (f *fakePromoAPI) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+f.token
}

func (f *fakePromoAPI) find(id string) int {
	for i := range f.promotions {
		if f.promotions[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakePromoAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.URL.Path == "/auth/jwt/login" {
		_ = r.ParseForm()
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "secret" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"LOGIN_BAD_CREDENTIALS"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(models.BearerResponse{AccessToken: f.token, TokenType: "bearer"})
		return
	}
	if !f.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/promotions":
		out := []models.Promotion{}
		for _, p := range f.promotions {
			if p.IsActive || r.URL.Query().Get("include_inactive") == "true" {
				out = append(out, p)
			}
		}
		_ = json.NewEncoder(w).Encode(out)

	case r.Method == http.MethodPost && r.URL.Path == "/promotions":
		var in []models.PromotionCreate
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.created = append(f.created, in...)
		p := models.Promotion{ID: "11111111-1111-4111-8111-111111111111", Name: in[0].Name, StartDate: in[0].StartDate, EndDate: in[0].EndDate, IsActive: in[0].IsActive, ParentID: in[0].ParentID}
		f.promotions = append(f.promotions, p)
		_ = json.NewEncoder(w).Encode([]models.Promotion{p})

	case r.Method == http.MethodPut && r.URL.Path == "/promotions":
		var in models.PromotionUpdate
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.updated = append(f.updated, in)
		_ = json.NewEncoder(w).Encode(models.Promotion{ID: in.ID, Name: in.Name, StartDate: in.StartDate, EndDate: in.EndDate, IsActive: in.IsActive, ParentID: in.ParentID})

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/promotions/"):
		id := strings.TrimPrefix(r.URL.Path, "/promotions/")
		i := f.find(id)
		if i < 0 {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		f.promotions = append(f.promotions[:i], f.promotions[i+1:]...)
		w.WriteHeader(http.StatusNoContent)

	case r.Method == http.MethodPost && r.URL.Path == "/static/upload/single":
		n := len(f.uploads)
		_ = r.ParseMultipartForm(1 << 20)
		_, fh, _ := r.FormFile("file")
		f.uploads = append(f.uploads, fh.Filename)
		status := http.StatusCreated
		if f.uploadStatus != nil {
			status = f.uploadStatus(n)
		}
		if status < 300 {
			if i := f.find(r.FormValue("promotion_id")); i >= 0 {
				path := "static/" + r.FormValue("promotion_id") + "/" + fh.Filename
				f.promotions[i].PromotionImages = append(f.promotions[i].PromotionImages, models.StaticFile{FilePath: path, IsActive: true})
			}
		}
		w.WriteHeader(status)

	case r.Method == http.MethodPut && r.URL.Path == "/static/update/single":
		_ = r.ParseMultipartForm(1 << 20)
		f.updatedFiles = append(f.updatedFiles, r.FormValue("file_id"))
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/static/files/"):
		f.deleted = append(f.deleted, strings.TrimPrefix(r.URL.Path, "/static/files/"))
		w.WriteHeader(http.StatusOK)

	case r.Method == http.MethodDelete && r.URL.Path == "/static":
		var in struct {
			FileIDs []string `json:"file_ids"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.batchDeleted = append(f.batchDeleted, in.FileIDs)
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []*models.AuditEntry
}

func (a *recordingAudit) Record(ctx context.Context, e *models.AuditEntry) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	e.CreatedAt = testNow
	a.entries = append(a.entries, e)
	return nil
}

func (a *recordingAudit) ListRecent(ctx context.Context, filter interfaces.AuditFilter) ([]*models.AuditEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := []*models.AuditEntry{}
	for _, e := range a.entries {
		if filter.PromotionID == "" || e.PromotionID == filter.PromotionID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (a *recordingAudit) actions() []models.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []models.AuditAction
	for _, e := range a.entries {
		out = append(out, e.Action)
	}
	return out
}

type testEnv struct {
	api    *fakePromoAPI
	audit  *recordingAudit
	base   *BaseHandler
	router chi.Router
	token  string
}

func testToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": testNow.Add(time.Hour).Unix(),
	}).SignedString([]byte("upstream-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// newTestEnv wires every console handler against a fake promotion API. The
// router mirrors the production route table without the ops middleware.
func newTestEnv(t *testing.T, promos ...models.Promotion) *testEnv {
	t.Helper()
	token := testToken(t)
	api := &fakePromoAPI{token: token, promotions: promos}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	audit := &recordingAudit{}
	base := NewBaseHandler(services.NewPromoAPIClient(srv.URL, nil), &config.Config{PromoSiteURL: "https://promo.example.com"}, audit)
	base.Now = func() time.Time { return testNow }

	auth := NewAuthHandler(base)
	ph := NewPromotionHandler(base)
	fh := NewFileHandler(base, nil)
	ah := NewAuditHandler(base)

	r := chi.NewRouter()
	r.Use(middleware.RequireToken("/api/v1/auth"))
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", auth.Login)
		r.Post("/auth/logout", auth.Logout)
		r.Get("/auth/me", auth.Me)
		r.Get("/audit", ah.ListAudit)
		r.Route("/promotions", func(r chi.Router) {
			r.Get("/", ph.ListPromotions)
			r.Post("/", ph.CreatePromotion)
			r.Get("/parents", ph.ListParents)
			r.Post("/form/parent", ph.SelectParent)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", ph.GetPromotion)
				r.Put("/", ph.UpdatePromotion)
				r.Delete("/", ph.DeletePromotion)
				r.Get("/promo-url", ph.PromoURL)
				r.Get("/files", fh.ListFiles)
				r.Post("/files", fh.UploadFiles)
				r.Put("/files", fh.UpdateFile)
				r.Delete("/files", fh.DeleteFile)
				r.Post("/files/import", fh.ImportFiles)
				r.Post("/files/batch-delete", fh.BatchDeleteFiles)
			})
		})
	})
	return &testEnv{api: api, audit: audit, base: base, router: r, token: token}
}

func (e *testEnv) do(t *testing.T, req *http.Request, authenticated bool) *httptest.ResponseRecorder {
	t.Helper()
	if authenticated {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: e.token})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", w.Body.String(), err)
	}
}

func strPtr(s string) *string { return &s }

func promo(id, name string, active bool, start, end time.Time) models.Promotion {
	return models.Promotion{ID: id, Name: name, IsActive: active, StartDate: start, EndDate: end}
}

// clearedCookie reports whether the response expires the access_token cookie.
func clearedCookie(w *httptest.ResponseRecorder) bool {
	for _, c := range w.Result().Cookies() {
		if c.Name == "access_token" && c.MaxAge < 0 {
			return true
		}
	}
	return false
}
