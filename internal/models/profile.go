package models

import (
	"strings"
	"time"
)

type UserType string

const (
	UserTypeAdvisor    UserType = "advisor"
	UserTypeLaboratory UserType = "laboratory"
)

// ParseUserType normalises s into a known UserType.
func ParseUserType(s string) (UserType, bool) {
	switch UserType(strings.ToLower(strings.TrimSpace(s))) {
	case UserTypeAdvisor:
		return UserTypeAdvisor, true
	case UserTypeLaboratory:
		return UserTypeLaboratory, true
	}
	return "", false
}

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ParseApprovalStatus normalises s into a known ApprovalStatus.
func ParseApprovalStatus(s string) (ApprovalStatus, bool) {
	switch ApprovalStatus(strings.ToLower(strings.TrimSpace(s))) {
	case ApprovalPending:
		return ApprovalPending, true
	case ApprovalApproved:
		return ApprovalApproved, true
	case ApprovalRejected:
		return ApprovalRejected, true
	}
	return "", false
}

// Profile is the public face of a member: an advisor or a laboratory.
type Profile struct {
	BaseModel

	UserID         string         `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	UserType       UserType       `gorm:"type:varchar(16);not null;index:idx_profiles_directory,priority:2" json:"user_type"`
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(16);not null;default:pending;index:idx_profiles_directory,priority:1" json:"approval_status"`
	InviteTokenID  *string        `gorm:"type:varchar(36);index" json:"invite_token_id,omitempty"`
	InviteToken    *InviteToken   `gorm:"foreignKey:InviteTokenID;constraint:OnDelete:SET NULL" json:"-"`

	FullName      string  `gorm:"not null" json:"full_name"`
	Email         string  `gorm:"size:320;not null" json:"email"`
	AvatarURL     *string `json:"avatar_url"`
	AvatarKey     *string `json:"-"`
	Headline      *string `json:"headline"`
	Bio           *string `gorm:"type:text" json:"bio"`
	Location      *string `gorm:"index" json:"location"`
	Organisation  *string `json:"organisation"`
	ContactNumber *string `json:"contact_number"`
	LinkedInURL   *string `gorm:"column:linkedin_url" json:"linkedin_url"`
	WebsiteURL    *string `json:"website_url"`
	Education     *string `gorm:"type:text" json:"education"`
	Experience    *string `gorm:"type:text" json:"experience"`

	Expertise         TagList `json:"expertise"`
	Services          TagList `json:"services"`
	IndustryExpertise TagList `json:"industry_expertise"`
	MentoringAreas    TagList `json:"mentoring_areas"`
	ResearchAreas     TagList `json:"research_areas"`
	Languages         TagList `json:"languages"`

	CompanySize *string `json:"company_size"`
	CompanyType *string `json:"company_type"`
	FoundedYear *int    `json:"founded_year"`

	ReviewedBy *string    `gorm:"type:varchar(36)" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// IsApproved reports whether the profile passed moderation.
func (p *Profile) IsApproved() bool {
	return p != nil && p.ApprovalStatus == ApprovalApproved
}

// Summary is the compact form embedded in connection listings.
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{
		ID:           p.ID,
		FullName:     p.FullName,
		AvatarURL:    p.AvatarURL,
		Headline:     p.Headline,
		UserType:     p.UserType,
		Organisation: p.Organisation,
	}
}

// ProfileSummary is a read-only projection of Profile.
type ProfileSummary struct {
	ID           string   `json:"id"`
	FullName     string   `json:"full_name"`
	AvatarURL    *string  `json:"avatar_url"`
	Headline     *string  `json:"headline"`
	UserType     UserType `json:"user_type"`
	Organisation *string  `json:"organisation"`
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OptionalString trims s and returns nil for blank input.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
