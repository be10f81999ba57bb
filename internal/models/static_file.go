// internal/models/static_file.go
package models

type StaticFileType string

const (
	StaticFileTypePromotionImage      StaticFileType = "promotion_image"
	StaticFileTypePartnerImage        StaticFileType = "partner_image"
	StaticFileTypeDocument            StaticFileType = "document"
	StaticFileTypePromotionLogo       StaticFileType = "promotion_logo"
	StaticFileTypePromotionLogoMobile StaticFileType = "promotion_logo_mobile"
)

// StaticFileTypes lists every category in display order.
var StaticFileTypes = []StaticFileType{
	StaticFileTypePromotionImage,
	StaticFileTypePartnerImage,
	StaticFileTypeDocument,
	StaticFileTypePromotionLogo,
	StaticFileTypePromotionLogoMobile,
}

func (t StaticFileType) Valid() bool {
	for _, v := range StaticFileTypes {
		if t == v {
			return true
		}
	}
	return false
}

// StaticFile is one uploaded asset. FileType is frequently null upstream and
// must not be used to decide which collection a file belongs to.
type StaticFile struct {
	FileType    *StaticFileType `json:"file_type"`
	IsActive    bool            `json:"is_active"`
	Caption     *string         `json:"caption"`
	PromotionID *string         `json:"promotion_id"`
	Order       *int            `json:"order"`
	FilePath    string          `json:"file_path"`
	Filename    *string         `json:"filename"`
}
