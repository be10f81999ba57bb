package promotions

import (
	"strings"
	"time"

	"promoadmin/internal/models"
	"promoadmin/internal/validation"
)

// ParentChoice is the parent field of the form. The empty value means the
// user hasn't chosen yet; NoParent means they explicitly chose none.
type ParentChoice string

const NoParent ParentChoice = "none"

func (c ParentChoice) IsPromotion() bool {
	return c != "" && c != NoParent
}

type Form struct {
	Name               string       `json:"name" validate:"required,max=255"`
	StartDate          time.Time    `json:"startDate" validate:"required"`
	EndDate            time.Time    `json:"endDate" validate:"required,gtfield=StartDate"`
	IsActive           bool         `json:"isActive"`
	IsParent           bool         `json:"isParent"`
	ParentID           ParentChoice `json:"parentId" validate:"omitempty,uuid|eq=none"`
	Rules              string       `json:"rules"`
	CouponsPlaceholder string       `json:"couponsPlaceholder"`
}

var validate = validation.New()

// NewForm returns the defaults for a new promotion: active, no parent,
// running from now until the same time tomorrow.
func NewForm(now time.Time) Form {
	start := now.Truncate(time.Minute)
	return Form{
		StartDate: start,
		EndDate:   start.AddDate(0, 0, 1),
		IsActive:  true,
		ParentID:  NoParent,
	}
}

// FromPromotion pre-fills the form for editing p.
func FromPromotion(p *models.Promotion) Form {
	f := Form{
		Name:      p.Name,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
		IsActive:  p.IsActive,
		IsParent:  p.IsParent,
		ParentID:  NoParent,
	}
	if p.HasParent() {
		f.ParentID = ParentChoice(*p.ParentID)
	}
	if p.Rules != nil {
		f.Rules = *p.Rules
	}
	if p.CouponsPlaceholder != nil {
		f.CouponsPlaceholder = *p.CouponsPlaceholder
	}
	return f
}

// Validate checks the form without touching the network.
func (f *Form) Validate() error {
	f.Name = strings.TrimSpace(f.Name)
	return validation.Struct(validate, f)
}

// SelectParent applies a parent choice to the form. Picking a promotion copies
// its start and end dates onto the form. Picking NoParent or resetting to the
// unchosen state leaves the dates as they are.
func (f *Form) SelectParent(choice ParentChoice, opts ParentOptions, now time.Time) (Advisory, error) {
	if !choice.IsPromotion() {
		f.ParentID = choice
		return Advisory{}, nil
	}
	parent, ok := opts.Find(string(choice))
	if !ok {
		return Advisory{}, ErrParentNotSelectable
	}
	f.ParentID = choice
	f.StartDate = parent.StartDate
	f.EndDate = parent.EndDate
	return adviseOn(parent, now), nil
}

// CheckParent verifies the form's current parent choice against opts without
// changing the form.
func (f *Form) CheckParent(opts ParentOptions, now time.Time) (Advisory, error) {
	if !f.ParentID.IsPromotion() {
		return Advisory{}, nil
	}
	parent, ok := opts.Find(string(f.ParentID))
	if !ok {
		return Advisory{}, ErrParentNotSelectable
	}
	return adviseOn(parent, now), nil
}

func (f *Form) ToCreate() models.PromotionCreate {
	isParent := f.IsParent
	out := models.PromotionCreate{
		Name:      f.Name,
		StartDate: f.StartDate.UTC(),
		EndDate:   f.EndDate.UTC(),
		IsActive:  f.IsActive,
		IsParent:  &isParent,
	}
	if f.ParentID.IsPromotion() {
		id := string(f.ParentID)
		out.ParentID = &id
	}
	out.Rules = optional(f.Rules)
	out.CouponsPlaceholder = optional(f.CouponsPlaceholder)
	return out
}

func (f *Form) ToUpdate(id string) models.PromotionUpdate {
	return models.PromotionUpdate{ID: id, PromotionCreate: f.ToCreate()}
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
