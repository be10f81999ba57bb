package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"promoadmin/internal/models"
	"promoadmin/internal/services"
	"promoadmin/internal/staticfiles"
	"promoadmin/internal/validation"
)

const maxMultipartMemory = 32 << 20

type FileHandler struct {
	*BaseHandler
	// assets is nil when no asset bucket is configured.
	assets *services.AssetSource
	v      *validator.Validate
}

func NewFileHandler(base *BaseHandler, assets *services.AssetSource) *FileHandler {
	return &FileHandler{BaseHandler: base, assets: assets, v: validation.New()}
}

type importRequest struct {
	Keys []string `json:"keys"`
	services.UploadMetadata
}

type batchDeleteRequest struct {
	FilePaths []string `json:"file_paths"`
	FileIDs   []string `json:"file_ids"`
}

// UploadResponse is the outcome of a batch upload. Files is present only
// when every file completed and the promotion was re-fetched.
type UploadResponse struct {
	*services.UploadReport
	Files []staticfiles.GroupView `json:"files,omitempty"`
}

// ListFiles godoc
// @Tags Files
// @Summary Files of a promotion, grouped by category
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {array} staticfiles.GroupView
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/promotions/{id}/files [get]
func (h *FileHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups(r.Context(), h.gateway(w, r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeGatewayError(w, "list_files", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// UploadFiles godoc
// @Tags Files
// @Summary Upload files to a promotion
// @Description Files are uploaded one at a time in the order given. A rejected credential stops the batch.
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Promotion ID"
// @Param files formData file true "Files (max 10MB each)"
// @Param file_type formData string true "promotion_image, partner_image, document, promotion_logo or promotion_logo_mobile"
// @Param caption formData string false "Click-through link"
// @Param order formData int false "Display order"
// @Success 201 {object} UploadResponse
// @Success 200 {object} UploadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/promotions/{id}/files [post]
func (h *FileHandler) UploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}
	meta, err := metadataFromForm(r)
	if err != nil {
		h.writeGatewayError(w, "upload_files", err)
		return
	}

	var items []services.UploadItem
	for _, fh := range r.MultipartForm.File["files"] {
		items = append(items, services.FromFileHeader(fh))
	}
	h.runUpload(w, r, items, meta)
}

// ImportFiles godoc
// @Tags Files
// @Summary Upload files from the asset bucket
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 201 {object} UploadResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/promotions/{id}/files/import [post]
func (h *FileHandler) ImportFiles(w http.ResponseWriter, r *http.Request) {
	if h.assets == nil {
		writeJSONErrorResponse(w, http.StatusServiceUnavailable, "asset_import_disabled", "Asset bucket is not configured")
		return
	}
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if len(req.Keys) == 0 {
		writeValidationError(w, validation.Field("keys", "select at least one file"))
		return
	}

	items, err := h.assets.Items(r.Context(), req.Keys)
	if err != nil {
		log.Printf("Failed to read assets from %s: %v", h.assets.Bucket(), err)
		writeJSONErrorResponse(w, http.StatusBadRequest, "asset_not_found", "Some selected assets could not be read")
		return
	}
	h.runUpload(w, r, items, req.UploadMetadata)
}

func (h *FileHandler) runUpload(w http.ResponseWriter, r *http.Request, items []services.UploadItem, meta services.UploadMetadata) {
	id := chi.URLParam(r, "id")
	gw := h.gateway(w, r)

	report, err := services.NewUploadOrchestrator(gw).UploadAll(r.Context(), id, items, meta, nil)
	if report != nil {
		for _, res := range report.Results {
			if res.State == services.UploadComplete {
				h.record(r.Context(), models.AuditFileUploaded, id, res.Name)
			}
		}
	}
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"error":    "unauthorized",
			"redirect": "/login",
			"results":  report.Results,
		})
		return
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Printf("Upload to promotion %s interrupted: %v", id, err)
		writeJSON(w, http.StatusRequestTimeout, map[string]any{"error": "upload_interrupted", "results": report.Results})
		return
	case err != nil:
		h.writeGatewayError(w, "upload_files", err)
		return
	}

	resp := UploadResponse{UploadReport: report}
	if !report.Refresh {
		writeJSON(w, http.StatusOK, resp)
		return
	}
	resp.Files, err = h.groups(r.Context(), gw, id)
	if err != nil {
		h.writeGatewayError(w, "list_files", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateFile godoc
// @Tags Files
// @Summary Replace a file's metadata and optionally its content
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Promotion ID"
// @Param file_path formData string true "Path of the file to update"
// @Param file formData file false "New content"
// @Param file_type formData string true "Category"
// @Param caption formData string false "Click-through link"
// @Param order formData int false "Display order"
// @Success 200 {array} staticfiles.GroupView
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/promotions/{id}/files [put]
func (h *FileHandler) UpdateFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to parse form")
		return
	}
	filePath := strings.TrimSpace(r.FormValue("file_path"))
	if filePath == "" {
		writeValidationError(w, validation.Field("file_path", "is required"))
		return
	}
	meta, err := metadataFromForm(r)
	if err == nil {
		err = validation.Struct(h.v, meta)
	}
	if err != nil {
		h.writeGatewayError(w, "update_file", err)
		return
	}

	update := services.FileUpdate{
		FileID:      staticfiles.DeriveFileID(filePath),
		PromotionID: id,
		FileType:    meta.FileType,
		Caption:     meta.Caption,
		Order:       meta.Order,
	}
	if file, fh, err := r.FormFile("file"); err == nil {
		defer file.Close()
		switch {
		case !services.AllowedUploadExtension(fh.Filename):
			writeValidationError(w, validation.Field("file", fmt.Sprintf("%s: unsupported file type", fh.Filename)))
			return
		case fh.Size > services.MaxUploadSize:
			writeValidationError(w, validation.Field("file", fmt.Sprintf("%s: larger than 10MB", fh.Filename)))
			return
		}
		update.Filename = fh.Filename
		update.Content = file
	}

	gw := h.gateway(w, r)
	if err := gw.UpdateFile(r.Context(), update); err != nil {
		h.writeGatewayError(w, "update_file", err)
		return
	}
	h.record(r.Context(), models.AuditFileUpdated, id, filePath)
	h.respondWithGroups(w, r, gw, id)
}

// DeleteFile godoc
// @Tags Files
// @Summary Delete one file
// @Produce json
// @Param id path string true "Promotion ID"
// @Param path query string true "File path or id"
// @Success 200 {array} staticfiles.GroupView
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/promotions/{id}/files [delete]
func (h *FileHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	path := strings.TrimSpace(r.URL.Query().Get("path"))
	if path == "" {
		writeValidationError(w, validation.Field("path", "is required"))
		return
	}

	gw := h.gateway(w, r)
	if err := gw.DeleteFile(r.Context(), path); err != nil {
		h.writeGatewayError(w, "delete_file", err)
		return
	}
	h.record(r.Context(), models.AuditFileDeleted, id, path)
	h.respondWithGroups(w, r, gw, id)
}

// BatchDeleteFiles godoc
// @Tags Files
// @Summary Delete several files
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {array} staticfiles.GroupView
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/promotions/{id}/files/batch-delete [post]
func (h *FileHandler) BatchDeleteFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req batchDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	ids := make([]string, 0, len(req.FileIDs)+len(req.FilePaths))
	ids = append(ids, req.FileIDs...)
	for _, p := range req.FilePaths {
		ids = append(ids, staticfiles.DeriveFileID(p))
	}
	if len(ids) == 0 {
		writeValidationError(w, validation.Field("file_paths", "select at least one file"))
		return
	}

	gw := h.gateway(w, r)
	if err := gw.DeleteFiles(r.Context(), ids); err != nil {
		h.writeGatewayError(w, "delete_files", err)
		return
	}
	h.record(r.Context(), models.AuditFileDeleted, id, strings.Join(ids, ","))
	h.respondWithGroups(w, r, gw, id)
}

func (h *FileHandler) respondWithGroups(w http.ResponseWriter, r *http.Request, gw *services.PromoAPIClient, id string) {
	groups, err := h.groups(r.Context(), gw, id)
	if err != nil {
		h.writeGatewayError(w, "list_files", err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// groups re-fetches the promotion; the promotion API is the only source of
// truth for its files.
func (h *FileHandler) groups(ctx context.Context, gw *services.PromoAPIClient, id string) ([]staticfiles.GroupView, error) {
	p, err := gw.GetPromotion(ctx, id)
	if err != nil {
		return nil, err
	}
	return staticfiles.Present(gw.BaseURL(), p), nil
}

func metadataFromForm(r *http.Request) (services.UploadMetadata, error) {
	meta := services.UploadMetadata{
		FileType: models.StaticFileType(strings.TrimSpace(r.FormValue("file_type"))),
		Caption:  strings.TrimSpace(r.FormValue("caption")),
	}
	if raw := strings.TrimSpace(r.FormValue("order")); raw != "" {
		order, err := strconv.Atoi(raw)
		if err != nil {
			return meta, validation.Field("order", "must be a whole number")
		}
		meta.Order = &order
	}
	return meta, nil
}
