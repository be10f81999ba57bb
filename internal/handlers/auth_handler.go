package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"promoadmin/internal/middleware"
	"promoadmin/internal/models"
	"promoadmin/internal/services"
	"promoadmin/internal/session"
	"promoadmin/internal/validation"
)

type AuthHandler struct {
	*BaseHandler
	v *validator.Validate
}

func NewAuthHandler(base *BaseHandler) *AuthHandler {
	return &AuthHandler{BaseHandler: base, v: validation.New()}
}

// Login godoc
// @Tags Auth
// @Summary Log in through the promotion API
// @Description Exchanges username and password for a bearer token and stores it in the access_token cookie.
// @Accept json
// @Produce json
// @Param body body models.LoginRequest true "Credentials"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
			return
		}
		req.Username = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Struct(h.v, req); err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeJSONErrorResponse(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	bearer, err := h.gateway(w, r).Login(r.Context(), req.Username, req.Password)
	if err != nil {
		var apiErr *services.APIError
		if errors.Is(err, services.ErrUnauthorized) ||
			(errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnprocessableEntity)) {
			writeJSONErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password")
			return
		}
		h.writeGatewayError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"token_type":    bearer.TokenType,
		"redirect":      "/",
	})
}

// Logout godoc
// @Tags Auth
// @Summary Log out
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.gateway(w, r).Logout(); err != nil {
		h.writeGatewayError(w, "logout", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out", "redirect": "/login"})
}

// Me godoc
// @Tags Auth
// @Summary Current user
// @Description Decodes the stored bearer token for display. The token is not verified here.
// @Produce json
// @Success 200 {object} models.CurrentUser
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	token := session.TokenFromRequest(r)
	if token == "" {
		writeUnauthorized(w)
		return
	}

	user := models.CurrentUser{Authenticated: true}
	if claims, err := middleware.ParseTokenClaims(token); err == nil {
		user.Username = claims.Subject
		if claims.ExpiresAt != nil {
			exp := claims.ExpiresAt.Unix()
			user.ExpiresAt = &exp
		}
	}
	writeJSON(w, http.StatusOK, user)
}
