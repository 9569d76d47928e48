package models

import "strings"

type PublicationType string

const (
	PublicationPaper        PublicationType = "paper"
	PublicationPresentation PublicationType = "presentation"
	PublicationReport       PublicationType = "report"
	PublicationThesis       PublicationType = "thesis"
	PublicationArticle      PublicationType = "article"
	PublicationPatent       PublicationType = "patent"
	PublicationOther        PublicationType = "other"
)

// PublicationTypes lists the accepted types in display order.
var PublicationTypes = []PublicationType{
	PublicationPaper,
	PublicationPresentation,
	PublicationReport,
	PublicationThesis,
	PublicationArticle,
	PublicationPatent,
	PublicationOther,
}

// ParsePublicationType returns paper for blank input.
func ParsePublicationType(s string) (PublicationType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PublicationPaper, true
	}
	for _, candidate := range PublicationTypes {
		if string(candidate) == s {
			return candidate, true
		}
	}
	return "", false
}

type Publication struct {
	BaseModel

	ProfileID       string          `gorm:"type:varchar(36);not null;index" json:"profile_id"`
	Profile         *Profile        `gorm:"foreignKey:ProfileID;constraint:OnDelete:CASCADE" json:"-"`
	Title           string          `gorm:"not null" json:"title"`
	Description     *string         `gorm:"type:text" json:"description"`
	PublicationType PublicationType `gorm:"type:varchar(32);not null;default:paper" json:"publication_type"`
	FileURL         *string         `json:"file_url"`
	FileKey         *string         `json:"-"`
	ExternalURL     *string         `json:"external_url"`
}
