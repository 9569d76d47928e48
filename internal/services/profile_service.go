package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/storage"
	"github.com/ud28188-create/codonyx.org/internal/viewer"
	"github.com/ud28188-create/codonyx.org/pkg/logger"
)

// ProfileFields are the member-editable profile attributes. Blank strings clear a field.
type ProfileFields struct {
	Headline      string
	Bio           string
	Location      string
	Organisation  string
	ContactNumber string
	LinkedInURL   string
	WebsiteURL    string
	Education     string
	Experience    string
	CompanySize   string
	CompanyType   string
	FoundedYear   *int

	Expertise         models.TagList
	Services          models.TagList
	IndustryExpertise models.TagList
	MentoringAreas    models.TagList
	ResearchAreas     models.TagList
	Languages         models.TagList
}

func (f ProfileFields) apply(p *models.Profile) {
	p.Headline = models.OptionalString(f.Headline)
	p.Bio = models.OptionalString(f.Bio)
	p.Location = models.OptionalString(f.Location)
	p.Organisation = models.OptionalString(f.Organisation)
	p.ContactNumber = models.OptionalString(f.ContactNumber)
	p.LinkedInURL = models.OptionalString(f.LinkedInURL)
	p.WebsiteURL = models.OptionalString(f.WebsiteURL)
	p.Education = models.OptionalString(f.Education)
	p.Experience = models.OptionalString(f.Experience)
	p.CompanySize = models.OptionalString(f.CompanySize)
	p.CompanyType = models.OptionalString(f.CompanyType)
	p.FoundedYear = f.FoundedYear

	p.Expertise = models.NormalizeTags(f.Expertise)
	p.Services = models.NormalizeTags(f.Services)
	p.IndustryExpertise = models.NormalizeTags(f.IndustryExpertise)
	p.MentoringAreas = models.NormalizeTags(f.MentoringAreas)
	p.ResearchAreas = models.NormalizeTags(f.ResearchAreas)
	p.Languages = models.NormalizeTags(f.Languages)
}

// UpdateProfileInput replaces the editable part of a profile.
type UpdateProfileInput struct {
	FullName string
	ProfileFields
}

// ProfileService reads profiles and handles self-service edits.
type ProfileService struct {
	db    *gorm.DB
	store storage.Store
	audit *AuditService
	now   func() time.Time
	log   *zap.Logger
}

// NewProfileService constructs a ProfileService. store may be nil, which disables avatars.
func NewProfileService(db *gorm.DB, store storage.Store, audit *AuditService) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	return &ProfileService{
		db:    db,
		store: store,
		audit: audit,
		now:   time.Now,
		log:   logger.WithModule("profiles"),
	}, nil
}

// Get loads a profile by ID regardless of approval state.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Profile, error) {
	return loadProfile(s.db.WithContext(ensureContext(ctx)), "id = ?", id)
}

// GetForUser loads the profile owned by userID.
func (s *ProfileService) GetForUser(ctx context.Context, userID string) (*models.Profile, error) {
	return loadProfile(s.db.WithContext(ensureContext(ctx)), "user_id = ?", userID)
}

// GetVisible loads a profile the viewer is allowed to see: approved profiles, their own, or any for admins.
func (s *ProfileService) GetVisible(ctx context.Context, v viewer.Viewer, id string) (*models.Profile, error) {
	profile, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.IsApproved() || v.IsAdmin() || profile.UserID == v.UserID {
		return profile, nil
	}
	return nil, ErrProfileNotFound
}

// Update replaces the editable fields of the profile with the given ID.
func (s *ProfileService) Update(ctx context.Context, profileID string, input UpdateProfileInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, fmt.Errorf("profile service: full name is required")
	}

	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}

	profile.FullName = fullName
	input.ProfileFields.apply(profile)

	if err := s.db.WithContext(ctx).Model(profile).
		Select("full_name", "headline", "bio", "location", "organisation", "contact_number",
			"linkedin_url", "website_url", "education", "experience", "company_size", "company_type",
			"founded_year", "expertise", "services", "industry_expertise", "mentoring_areas",
			"research_areas", "languages").
		Updates(profile).Error; err != nil {
		return nil, fmt.Errorf("profile service: update profile: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{Action: "profile.update", Resource: "profile:" + profile.ID, Result: AuditResultSuccess})
	return profile, nil
}

// UpdateAvatar stores a new avatar and points the profile at it. The previous object is
// removed on a best-effort basis.
func (s *ProfileService) UpdateAvatar(ctx context.Context, profileID string, upload Upload) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	profile, err := s.Get(ctx, profileID)
	if err != nil {
		return nil, err
	}
	previousKey := models.Deref(profile.AvatarKey)

	if err := s.storeAvatar(ctx, profile, upload); err != nil {
		return nil, err
	}
	if previousKey != models.Deref(profile.AvatarKey) {
		s.deleteObject(ctx, storage.BucketAvatars, previousKey)
	}
	return profile, nil
}

// storeAvatar uploads the file and records its URL on the profile row.
func (s *ProfileService) storeAvatar(ctx context.Context, profile *models.Profile, upload Upload) error {
	if s.store == nil {
		return errors.New("profile service: object storage is not configured")
	}

	key := storage.ObjectKey(profile.UserID, upload.Filename, s.now())
	url, err := s.store.Put(ctx, storage.Object{
		Bucket:      storage.BucketAvatars,
		Key:         key,
		Body:        upload.Body,
		Size:        upload.Size,
		ContentType: upload.ContentType,
	})
	if err != nil {
		return fmt.Errorf("profile service: upload avatar: %w", err)
	}

	// gorm must not write back into the pointer fields of profile.
	if err := s.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", profile.ID).Updates(map[string]any{
		"avatar_url": url,
		"avatar_key": key,
	}).Error; err != nil {
		s.deleteObject(ctx, storage.BucketAvatars, key)
		return fmt.Errorf("profile service: save avatar: %w", err)
	}

	profile.AvatarURL = &url
	profile.AvatarKey = &key
	return nil
}

func (s *ProfileService) deleteObject(ctx context.Context, bucket, key string) {
	if s.store == nil || key == "" {
		return
	}
	if err := s.store.Delete(ctx, bucket, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("failed to delete stored object", zap.String("bucket", bucket), zap.String("key", key), zap.Error(err))
	}
}

func loadProfile(db *gorm.DB, where string, arg string) (*models.Profile, error) {
	var profile models.Profile
	if err := db.Where(where, strings.TrimSpace(arg)).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return &profile, nil
}
