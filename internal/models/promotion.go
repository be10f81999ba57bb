// internal/models/promotion.go
package models

import "time"

// PromotionChild is the lightweight summary the remote service embeds for each child.
type PromotionChild struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	IsActive  bool      `json:"isActive"`
}

type Promotion struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	StartDate           time.Time        `json:"startDate"`
	EndDate             time.Time        `json:"endDate"`
	IsActive            bool             `json:"isActive"`
	ParentID            *string          `json:"parentId"`
	Rules               *string          `json:"rules"`
	CouponsPlaceholder  *string          `json:"couponsPlaceholder"`
	PromotionImages     []StaticFile     `json:"promotionImages"`
	PartnerImages       []StaticFile     `json:"partnerImages"`
	Documents           []StaticFile     `json:"documents"`
	Children            []PromotionChild `json:"children"`
	PromotionLogo       *StaticFile      `json:"promotionLogo"`
	PromotionLogoMobile *StaticFile      `json:"promotionLogoMobile"`
	IsParent            bool             `json:"isParent"`
	IsChild             bool             `json:"isChild"`
}

// HasParent reports whether ParentID points at another promotion.
func (p *Promotion) HasParent() bool {
	return p.ParentID != nil && *p.ParentID != ""
}

type PromotionCreate struct {
	Name               string    `json:"name"`
	StartDate          time.Time `json:"startDate"`
	EndDate            time.Time `json:"endDate"`
	IsActive           bool      `json:"isActive"`
	IsParent           *bool     `json:"isParent,omitempty"`
	ParentID           *string   `json:"parentId"`
	Rules              *string   `json:"rules"`
	CouponsPlaceholder *string   `json:"couponsPlaceholder"`
}

type PromotionUpdate struct {
	ID string `json:"id"`
	PromotionCreate
}
