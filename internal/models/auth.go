// internal/models/auth.go
package models

type BearerResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CurrentUser struct {
	Username      string `json:"username"`
	Authenticated bool   `json:"authenticated"`
	ExpiresAt     *int64 `json:"expires_at,omitempty"`
}
