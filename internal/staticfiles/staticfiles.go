// Package staticfiles organizes a promotion's file collections for display.
//
// A file's category is the collection it was returned in. The file_type field
// on each record is not reliably populated by the promotion API and is never
// consulted here.
package staticfiles

import (
	"path"
	"regexp"
	"strings"

	"promoadmin/internal/models"
)

type Group struct {
	Category models.StaticFileType `json:"category"`
	Label    string                `json:"label"`
	Files    []models.StaticFile   `json:"files"`
}

func (g Group) Empty() bool { return len(g.Files) == 0 }

var labels = map[models.StaticFileType]string{
	models.StaticFileTypePromotionImage:      "Promotion images",
	models.StaticFileTypePartnerImage:        "Partner images",
	models.StaticFileTypeDocument:            "Documents",
	models.StaticFileTypePromotionLogo:       "Promotion logo",
	models.StaticFileTypePromotionLogoMobile: "Mobile app logo",
}

// Label returns the display label of a category.
func Label(t models.StaticFileType) string {
	return labels[t]
}

// Categorize returns exactly five groups in fixed order, one per category.
// Files is never nil, so an empty group serializes as [] rather than null.
func Categorize(p *models.Promotion) []Group {
	groups := make([]Group, 0, len(models.StaticFileTypes))
	for _, t := range models.StaticFileTypes {
		groups = append(groups, Group{Category: t, Label: labels[t], Files: collection(p, t)})
	}
	return groups
}

func collection(p *models.Promotion, t models.StaticFileType) []models.StaticFile {
	out := []models.StaticFile{}
	if p == nil {
		return out
	}
	switch t {
	case models.StaticFileTypePromotionImage:
		out = append(out, p.PromotionImages...)
	case models.StaticFileTypePartnerImage:
		out = append(out, p.PartnerImages...)
	case models.StaticFileTypeDocument:
		out = append(out, p.Documents...)
	case models.StaticFileTypePromotionLogo:
		if p.PromotionLogo != nil {
			out = append(out, *p.PromotionLogo)
		}
	case models.StaticFileTypePromotionLogoMobile:
		if p.PromotionLogoMobile != nil {
			out = append(out, *p.PromotionLogoMobile)
		}
	}
	return out
}

var imageExt = regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|webp)$`)

// IsImage checks the original filename first and falls back to the storage path.
func IsImage(f models.StaticFile) bool {
	if f.Filename != nil && *f.Filename != "" && imageExt.MatchString(*f.Filename) {
		return true
	}
	return imageExt.MatchString(f.FilePath)
}

// DeriveFileID turns a storage path into the identifier the delete endpoint
// expects: the last path segment up to its first dot. Values without a slash
// are taken to be identifiers already. This mirrors the API's current path
// layout and breaks silently if that layout changes.
func DeriveFileID(pathOrID string) string {
	if !strings.Contains(pathOrID, "/") {
		return pathOrID
	}
	name := path.Base(pathOrID)
	if i := strings.Index(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}

// BuildFileURL resolves a storage path against the API base URL unless it is
// already absolute.
func BuildFileURL(baseURL, filePath string) string {
	if strings.HasPrefix(filePath, "http") {
		return filePath
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(filePath, "/")
}

type FileView struct {
	models.StaticFile
	URL     string `json:"url"`
	FileID  string `json:"file_id"`
	IsImage bool   `json:"is_image"`
}

type GroupView struct {
	Category models.StaticFileType `json:"category"`
	Label    string                `json:"label"`
	Files    []FileView            `json:"files"`
}

// Present decorates Categorize output with what the UI needs to render and delete files.
func Present(baseURL string, p *models.Promotion) []GroupView {
	groups := Categorize(p)
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		gv := GroupView{Category: g.Category, Label: g.Label, Files: make([]FileView, 0, len(g.Files))}
		for _, f := range g.Files {
			gv.Files = append(gv.Files, FileView{
				StaticFile: f,
				URL:        BuildFileURL(baseURL, f.FilePath),
				FileID:     DeriveFileID(f.FilePath),
				IsImage:    IsImage(f),
			})
		}
		out = append(out, gv)
	}
	return out
}
