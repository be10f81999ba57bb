package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"promoadmin/internal/models"
	"promoadmin/internal/promotions"
	"promoadmin/internal/services"
	"promoadmin/internal/staticfiles"
	"promoadmin/internal/validation"
)

type PromotionHandler struct {
	*BaseHandler
}

func NewPromotionHandler(base *BaseHandler) *PromotionHandler {
	return &PromotionHandler{BaseHandler: base}
}

// PromotionDetail is the edit page payload.
type PromotionDetail struct {
	Promotion *models.Promotion        `json:"promotion"`
	Form      promotions.Form          `json:"form"`
	Expired   bool                     `json:"expired"`
	Files     []staticfiles.GroupView  `json:"files"`
	Parents   promotions.ParentOptions `json:"parents"`
}

// AdvisoryView is the non-blocking warning shown when the chosen parent is
// inactive or expired.
type AdvisoryView struct {
	Inactive bool   `json:"inactive"`
	Expired  bool   `json:"expired"`
	Message  string `json:"message,omitempty"`
}

func advisoryView(a promotions.Advisory) *AdvisoryView {
	if !a.Any() {
		return nil
	}
	return &AdvisoryView{Inactive: a.Inactive, Expired: a.Expired, Message: a.Message()}
}

type parentSelection struct {
	Form      promotions.Form         `json:"form"`
	Choice    promotions.ParentChoice `json:"choice"`
	CurrentID string                  `json:"current_id"`
}

// ListPromotions godoc
// @Tags Promotions
// @Summary List promotions
// @Produce json
// @Param include_inactive query bool false "Include inactive promotions"
// @Param parent_id query string false "Only children of this parent"
// @Param q query string false "Case-insensitive name search"
// @Success 200 {array} models.Promotion
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/promotions [get]
func (h *PromotionHandler) ListPromotions(w http.ResponseWriter, r *http.Request) {
	includeInactive, _ := strconv.ParseBool(r.URL.Query().Get("include_inactive"))
	list, err := h.gateway(w, r).ListPromotions(r.Context(), services.ListPromotionsOptions{
		IncludeInactive: includeInactive,
		ParentID:        strings.TrimSpace(r.URL.Query().Get("parent_id")),
	})
	if err != nil {
		h.writeGatewayError(w, "list_promotions", err)
		return
	}
	writeJSON(w, http.StatusOK, promotions.Search(list, r.URL.Query().Get("q")))
}

// GetPromotion godoc
// @Tags Promotions
// @Summary Get a promotion with its files and selectable parents
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} PromotionDetail
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/promotions/{id} [get]
func (h *PromotionHandler) GetPromotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	all, err := h.gateway(w, r).ListPromotions(r.Context(), services.ListPromotionsOptions{IncludeInactive: true})
	if err != nil {
		h.writeGatewayError(w, "get_promotion", err)
		return
	}
	p, err := promotions.Find(all, id)
	if err != nil {
		writePromotionNotFound(w)
		return
	}

	now := h.Now()
	writeJSON(w, http.StatusOK, PromotionDetail{
		Promotion: p,
		Form:      promotions.FromPromotion(p),
		Expired:   promotions.IsExpired(p, now),
		Files:     staticfiles.Present(h.Client.BaseURL(), p),
		Parents:   promotions.SelectableParents(all, p, now),
	})
}

// ListParents godoc
// @Tags Promotions
// @Summary Selectable parents
// @Description Promotions that may be chosen as parent, split into active and inactive/expired groups.
// @Produce json
// @Param current query string false "ID of the promotion being edited"
// @Success 200 {object} promotions.ParentOptions
// @Router /api/v1/promotions/parents [get]
func (h *PromotionHandler) ListParents(w http.ResponseWriter, r *http.Request) {
	all, err := h.gateway(w, r).ListPromotions(r.Context(), services.ListPromotionsOptions{IncludeInactive: true})
	if err != nil {
		h.writeGatewayError(w, "list_parents", err)
		return
	}
	current, err := currentPromotion(all, r.URL.Query().Get("current"))
	if err != nil {
		writePromotionNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, promotions.SelectableParents(all, current, h.Now()))
}

// SelectParent godoc
// @Tags Promotions
// @Summary Apply a parent choice to a form draft
// @Description Choosing a promotion copies its dates onto the form; choosing "none" leaves them.
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/promotions/form/parent [post]
func (h *PromotionHandler) SelectParent(w http.ResponseWriter, r *http.Request) {
	var req parentSelection
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	var opts promotions.ParentOptions
	if req.Choice.IsPromotion() {
		all, err := h.gateway(w, r).ListPromotions(r.Context(), services.ListPromotionsOptions{IncludeInactive: true})
		if err != nil {
			h.writeGatewayError(w, "list_parents", err)
			return
		}
		current, err := currentPromotion(all, req.CurrentID)
		if err != nil {
			writePromotionNotFound(w)
			return
		}
		opts = promotions.SelectableParents(all, current, h.Now())
	}

	form := req.Form
	advisory, err := form.SelectParent(req.Choice, opts, h.Now())
	if errors.Is(err, promotions.ErrParentNotSelectable) {
		writeValidationError(w, validation.Field("parentId", "is not a selectable parent"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"form": form, "advisory": advisoryView(advisory)})
}

// CreatePromotion godoc
// @Tags Promotions
// @Summary Create a promotion
// @Accept json
// @Produce json
// @Param body body promotions.Form true "Promotion form"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/promotions [post]
func (h *PromotionHandler) CreatePromotion(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	gw := h.gateway(w, r)
	advisory, err := h.checkParent(r, gw, &form, nil)
	if err != nil {
		h.writeGatewayError(w, "create_promotion", err)
		return
	}

	created, err := gw.CreatePromotion(r.Context(), form.ToCreate())
	if err != nil {
		h.writeGatewayError(w, "create_promotion", err)
		return
	}
	h.record(r.Context(), models.AuditPromotionCreated, created.ID, created.Name)
	writeJSON(w, http.StatusCreated, map[string]any{"promotion": created, "advisory": advisoryView(advisory)})
}

// UpdatePromotion godoc
// @Tags Promotions
// @Summary Update a promotion
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Param body body promotions.Form true "Promotion form"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/promotions/{id} [put]
func (h *PromotionHandler) UpdatePromotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, ok := decodeForm(w, r)
	if !ok {
		return
	}

	gw := h.gateway(w, r)
	all, err := gw.ListPromotions(r.Context(), services.ListPromotionsOptions{IncludeInactive: true})
	if err != nil {
		h.writeGatewayError(w, "update_promotion", err)
		return
	}
	current, err := promotions.Find(all, id)
	if err != nil {
		writePromotionNotFound(w)
		return
	}
	advisory, err := checkParentAgainst(all, current, &form, h.Now())
	if err != nil {
		h.writeGatewayError(w, "update_promotion", err)
		return
	}

	updated, err := gw.UpdatePromotion(r.Context(), form.ToUpdate(id))
	if err != nil {
		h.writeGatewayError(w, "update_promotion", err)
		return
	}
	h.record(r.Context(), models.AuditPromotionUpdated, id, form.Name)
	writeJSON(w, http.StatusOK, map[string]any{"promotion": updated, "advisory": advisoryView(advisory)})
}

// DeletePromotion godoc
// @Tags Promotions
// @Summary Delete a promotion
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/promotions/{id} [delete]
func (h *PromotionHandler) DeletePromotion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.gateway(w, r).DeletePromotion(r.Context(), id); err != nil {
		h.writeGatewayError(w, "delete_promotion", err)
		return
	}
	h.record(r.Context(), models.AuditPromotionDeleted, id, "")
	writeJSON(w, http.StatusOK, map[string]any{"message": "Promotion deleted", "redirect": "/"})
}

// PromoURL godoc
// @Tags Promotions
// @Summary Promo site preview link
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} map[string]string
// @Router /api/v1/promotions/{id}/promo-url [get]
func (h *PromotionHandler) PromoURL(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"url": h.promoURL(chi.URLParam(r, "id"))})
}

// promoURL builds a preview link with a random 9-digit card number and
// visitor id, so every preview looks like a fresh visitor.
func (h *PromotionHandler) promoURL(id string) string {
	q := url.Values{}
	q.Set("promo_id", id)
	q.Set("card", strconv.Itoa(100_000_000+rand.Intn(900_000_000)))
	q.Set("lui", uuid.NewString())

	base := "http://localhost:3001"
	if h.Cfg != nil && h.Cfg.PromoSiteURL != "" {
		base = h.Cfg.PromoSiteURL
	}
	return fmt.Sprintf("%s/?%s", strings.TrimRight(base, "/"), q.Encode())
}

func (h *PromotionHandler) checkParent(r *http.Request, gw *services.PromoAPIClient, form *promotions.Form, current *models.Promotion) (promotions.Advisory, error) {
	if !form.ParentID.IsPromotion() {
		return promotions.Advisory{}, nil
	}
	all, err := gw.ListPromotions(r.Context(), services.ListPromotionsOptions{IncludeInactive: true})
	if err != nil {
		return promotions.Advisory{}, err
	}
	return checkParentAgainst(all, current, form, h.Now())
}

func decodeForm(w http.ResponseWriter, r *http.Request) (promotions.Form, bool) {
	var form promotions.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return form, false
	}
	if err := form.Validate(); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
		} else {
			writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		}
		return form, false
	}
	return form, true
}

func checkParentAgainst(all []models.Promotion, current *models.Promotion, form *promotions.Form, now time.Time) (promotions.Advisory, error) {
	advisory, err := form.CheckParent(promotions.SelectableParents(all, current, now), now)
	if errors.Is(err, promotions.ErrParentNotSelectable) {
		return advisory, validation.Field("parentId", "is not a selectable parent")
	}
	return advisory, err
}

func currentPromotion(all []models.Promotion, id string) (*models.Promotion, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}
	return promotions.Find(all, id)
}
