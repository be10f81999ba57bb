// Package promotions models the promotion hierarchy and the promotion edit form.
//
// Hierarchies are single-level: a child can't be a parent, and a promotion
// can't pick itself or one of its own children as its parent.
package promotions

import (
	"errors"
	"strings"
	"time"

	"promoadmin/internal/models"
)

var (
	ErrNotFound            = errors.New("promotion not found")
	ErrParentNotSelectable = errors.New("parent promotion is not selectable")
)

// IsExpired reports whether the promotion's end date is at or before now.
// It ignores the isActive flag.
func IsExpired(p *models.Promotion, now time.Time) bool {
	return !p.EndDate.After(now)
}

// IsLive reports whether the promotion is active and not expired.
func IsLive(p *models.Promotion, now time.Time) bool {
	return p.IsActive && !IsExpired(p, now)
}

// ParentOptions holds the selectable parents split for display. Input order
// is kept inside each group.
type ParentOptions struct {
	Active   []models.Promotion `json:"active"`
	Inactive []models.Promotion `json:"inactive"`
}

// Find returns the option with the given id.
func (o ParentOptions) Find(id string) (*models.Promotion, bool) {
	for _, group := range [][]models.Promotion{o.Active, o.Inactive} {
		for i := range group {
			if group[i].ID == id {
				return &group[i], true
			}
		}
	}
	return nil, false
}

func (o ParentOptions) Len() int { return len(o.Active) + len(o.Inactive) }

// SelectableParents filters all down to the promotions current may use as a
// parent. current is nil when a new promotion is being created.
func SelectableParents(all []models.Promotion, current *models.Promotion, now time.Time) ParentOptions {
	opts := ParentOptions{Active: []models.Promotion{}, Inactive: []models.Promotion{}}
	for _, p := range all {
		if p.IsChild {
			continue
		}
		if current != nil {
			if p.ID == current.ID {
				continue
			}
			if p.ParentID != nil && *p.ParentID == current.ID {
				continue
			}
		}
		if IsLive(&p, now) {
			opts.Active = append(opts.Active, p)
		} else {
			opts.Inactive = append(opts.Inactive, p)
		}
	}
	return opts
}

// Advisory flags a chosen parent that is inactive or expired. It never blocks
// the choice.
type Advisory struct {
	Inactive bool `json:"inactive"`
	Expired  bool `json:"expired"`
}

func (a Advisory) Any() bool { return a.Inactive || a.Expired }

func (a Advisory) Message() string {
	switch {
	case a.Inactive && a.Expired:
		return "selected parent promotion is inactive and has already ended"
	case a.Inactive:
		return "selected parent promotion is inactive"
	case a.Expired:
		return "selected parent promotion has already ended"
	}
	return ""
}

func adviseOn(parent *models.Promotion, now time.Time) Advisory {
	return Advisory{Inactive: !parent.IsActive, Expired: IsExpired(parent, now)}
}

// Find returns the promotion with id from list.
func Find(list []models.Promotion, id string) (*models.Promotion, error) {
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, ErrNotFound
}

// Search keeps promotions whose name contains query, ignoring case. An empty
// query keeps everything.
func Search(list []models.Promotion, query string) []models.Promotion {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Promotion, 0, len(list))
	for _, p := range list {
		if q == "" || strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, p)
		}
	}
	return out
}
