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
	"github.com/ud28188-create/codonyx.org/pkg/logger"
	"github.com/ud28188-create/codonyx.org/pkg/validator"
)

// PublicationInput creates or replaces a publication. File, when set, replaces any stored file.
type PublicationInput struct {
	Title           string
	Description     string
	PublicationType string
	ExternalURL     string
	File            *Upload
}

// PublicationService manages the publications attached to a profile.
type PublicationService struct {
	db    *gorm.DB
	store storage.Store
	audit *AuditService
	now   func() time.Time
	log   *zap.Logger
}

// NewPublicationService constructs a PublicationService. store may be nil, which disables file uploads.
func NewPublicationService(db *gorm.DB, store storage.Store, audit *AuditService) (*PublicationService, error) {
	if db == nil {
		return nil, errors.New("publication service: db is required")
	}
	return &PublicationService{
		db:    db,
		store: store,
		audit: audit,
		now:   time.Now,
		log:   logger.WithModule("publications"),
	}, nil
}

// ListForProfile returns a profile's publications, newest first.
func (s *PublicationService) ListForProfile(ctx context.Context, profileID string) ([]models.Publication, error) {
	var publications []models.Publication
	if err := s.db.WithContext(ensureContext(ctx)).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&publications).Error; err != nil {
		return nil, fmt.Errorf("publication service: list publications: %w", err)
	}
	return publications, nil
}

// Create adds a publication to owner's profile.
func (s *PublicationService) Create(ctx context.Context, owner *models.Profile, input PublicationInput) (*models.Publication, error) {
	ctx = ensureContext(ctx)
	if owner == nil {
		return nil, ErrProfileNotFound
	}

	publication := models.Publication{ProfileID: owner.ID}
	if err := applyPublicationInput(&publication, input); err != nil {
		return nil, err
	}

	if input.File != nil {
		if err := s.storeFile(ctx, owner, &publication, *input.File); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Create(&publication).Error; err != nil {
		s.deleteFile(ctx, publication.FileKey)
		return nil, fmt.Errorf("publication service: create publication: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{Action: "publication.create", Resource: "publication:" + publication.ID, Result: AuditResultSuccess})
	return &publication, nil
}

// Update replaces a publication owned by owner.
func (s *PublicationService) Update(ctx context.Context, owner *models.Profile, publicationID string, input PublicationInput) (*models.Publication, error) {
	ctx = ensureContext(ctx)

	publication, err := s.loadOwned(ctx, owner, publicationID)
	if err != nil {
		return nil, err
	}
	previousKey := publication.FileKey

	if err := applyPublicationInput(publication, input); err != nil {
		return nil, err
	}
	if input.File != nil {
		if err := s.storeFile(ctx, owner, publication, *input.File); err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).Model(publication).
		Select("title", "description", "publication_type", "external_url", "file_url", "file_key").
		Updates(publication).Error; err != nil {
		if input.File != nil {
			s.deleteFile(ctx, publication.FileKey)
		}
		return nil, fmt.Errorf("publication service: update publication: %w", err)
	}
	if input.File != nil {
		s.deleteFile(ctx, previousKey)
	}

	recordAudit(s.audit, ctx, AuditEntry{Action: "publication.update", Resource: "publication:" + publication.ID, Result: AuditResultSuccess})
	return publication, nil
}

// Delete removes a publication owned by owner and its stored file.
func (s *PublicationService) Delete(ctx context.Context, owner *models.Profile, publicationID string) error {
	ctx = ensureContext(ctx)

	publication, err := s.loadOwned(ctx, owner, publicationID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(publication).Error; err != nil {
		return fmt.Errorf("publication service: delete publication: %w", err)
	}
	s.deleteFile(ctx, publication.FileKey)

	recordAudit(s.audit, ctx, AuditEntry{Action: "publication.delete", Resource: "publication:" + publication.ID, Result: AuditResultSuccess})
	return nil
}

func (s *PublicationService) loadOwned(ctx context.Context, owner *models.Profile, publicationID string) (*models.Publication, error) {
	if owner == nil {
		return nil, ErrPublicationNotFound
	}
	var publication models.Publication
	if err := s.db.WithContext(ctx).
		Where("id = ? AND profile_id = ?", strings.TrimSpace(publicationID), owner.ID).
		First(&publication).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPublicationNotFound
		}
		return nil, fmt.Errorf("publication service: load publication: %w", err)
	}
	return &publication, nil
}

func (s *PublicationService) storeFile(ctx context.Context, owner *models.Profile, publication *models.Publication, upload Upload) error {
	if s.store == nil {
		return errors.New("publication service: object storage is not configured")
	}
	key := storage.ObjectKey(owner.UserID, upload.Filename, s.now())
	url, err := s.store.Put(ctx, storage.Object{
		Bucket:      storage.BucketPublications,
		Key:         key,
		Body:        upload.Body,
		Size:        upload.Size,
		ContentType: upload.ContentType,
	})
	if err != nil {
		return fmt.Errorf("publication service: upload file: %w", err)
	}
	publication.FileURL = &url
	publication.FileKey = &key
	return nil
}

func (s *PublicationService) deleteFile(ctx context.Context, key *string) {
	if s.store == nil || key == nil || *key == "" {
		return
	}
	if err := s.store.Delete(ctx, storage.BucketPublications, *key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.Warn("failed to delete publication file", zap.String("key", *key), zap.Error(err))
	}
}

func applyPublicationInput(publication *models.Publication, input PublicationInput) error {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidPublication)
	}
	pubType, ok := models.ParsePublicationType(input.PublicationType)
	if !ok {
		return fmt.Errorf("%w: unknown publication type %q", ErrInvalidPublication, input.PublicationType)
	}
	externalURL := models.OptionalString(input.ExternalURL)
	if externalURL != nil {
		if err := validator.ValidateVar(*externalURL, "url"); err != nil {
			return fmt.Errorf("%w: external_url must be a valid URL", ErrInvalidPublication)
		}
	}

	publication.Title = title
	publication.Description = models.OptionalString(input.Description)
	publication.PublicationType = pubType
	publication.ExternalURL = externalURL
	return nil
}
