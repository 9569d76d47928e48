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
	"github.com/ud28188-create/codonyx.org/internal/notifications"
	"github.com/ud28188-create/codonyx.org/pkg/logger"
	"github.com/ud28188-create/codonyx.org/pkg/mail"
	"github.com/ud28188-create/codonyx.org/pkg/metrics"
)

// ProfileListOptions filters the admin profile listing.
type ProfileListOptions struct {
	Status   models.ApprovalStatus
	UserType models.UserType
	Page     int
	PageSize int
}

// ApprovalService implements the admin moderation gate.
type ApprovalService struct {
	db            *gorm.DB
	notifications *NotificationService
	emailer       *notifications.Emailer
	audit         *AuditService
	now           func() time.Time
	log           *zap.Logger
}

// NewApprovalService constructs an ApprovalService. notifications and emailer may be nil.
func NewApprovalService(db *gorm.DB, notifier *NotificationService, emailer *notifications.Emailer, audit *AuditService) (*ApprovalService, error) {
	if db == nil {
		return nil, errors.New("approval service: db is required")
	}
	return &ApprovalService{
		db:            db,
		notifications: notifier,
		emailer:       emailer,
		audit:         audit,
		now:           time.Now,
		log:           logger.WithModule("approvals"),
	}, nil
}

// ListPending returns every profile awaiting a decision, newest first.
func (s *ApprovalService) ListPending(ctx context.Context) ([]models.Profile, error) {
	ctx = ensureContext(ctx)

	var profiles []models.Profile
	if err := s.db.WithContext(ctx).
		Where("approval_status = ?", models.ApprovalPending).
		Order("created_at DESC").
		Find(&profiles).Error; err != nil {
		return nil, fmt.Errorf("approval service: list pending profiles: %w", err)
	}
	return profiles, nil
}

// ListProfiles returns profiles filtered by status and type, newest first.
func (s *ApprovalService) ListProfiles(ctx context.Context, opts ProfileListOptions) ([]models.Profile, int64, error) {
	ctx = ensureContext(ctx)
	page, perPage := normalisePage(opts.Page, opts.PageSize, 50, 200)

	query := s.db.WithContext(ctx).Model(&models.Profile{})
	if opts.Status != "" {
		query = query.Where("approval_status = ?", opts.Status)
	}
	if opts.UserType != "" {
		query = query.Where("user_type = ?", opts.UserType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("approval service: count profiles: %w", err)
	}

	var profiles []models.Profile
	if err := query.
		Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&profiles).Error; err != nil {
		return nil, 0, fmt.Errorf("approval service: list profiles: %w", err)
	}
	return profiles, total, nil
}

// Decide moves a pending profile to approved or rejected. Repeating the current decision is a
// no-op; any other transition fails with ErrInvalidTransition.
func (s *ApprovalService) Decide(ctx context.Context, profileID string, decision models.ApprovalStatus, adminID string) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return nil, ErrInvalidDecision
	}

	profile, err := loadProfile(s.db.WithContext(ctx), "id = ?", profileID)
	if err != nil {
		return nil, err
	}
	if profile.ApprovalStatus == decision {
		return profile, nil
	}
	if profile.ApprovalStatus != models.ApprovalPending {
		return nil, ErrInvalidTransition
	}

	now := s.now().UTC()
	adminID = strings.TrimSpace(adminID)
	result := s.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND approval_status = ?", profile.ID, models.ApprovalPending).
		Updates(map[string]any{
			"approval_status": decision,
			"reviewed_by":     adminID,
			"reviewed_at":     now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("approval service: update profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// Another admin decided first.
		current, err := loadProfile(s.db.WithContext(ctx), "id = ?", profile.ID)
		if err != nil {
			return nil, err
		}
		if current.ApprovalStatus == decision {
			return current, nil
		}
		return nil, ErrInvalidTransition
	}

	profile.ApprovalStatus = decision
	profile.ReviewedBy = &adminID
	profile.ReviewedAt = &now

	metrics.ApprovalDecisions.WithLabelValues(string(decision)).Inc()
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   stringPtr(adminID),
		Action:   "profile.decide",
		Resource: "profile:" + profile.ID,
		Result:   AuditResultSuccess,
		Metadata: map[string]any{"decision": decision},
	})
	s.announce(ctx, profile)

	return profile, nil
}

func (s *ApprovalService) announce(ctx context.Context, profile *models.Profile) {
	approved := profile.ApprovalStatus == models.ApprovalApproved

	if s.notifications != nil {
		title, message := "Registration not approved", "Your registration was not approved."
		if approved {
			title, message = "Profile approved", "Your profile has been approved. Welcome to the network."
		}
		if _, err := s.notifications.Create(ctx, CreateNotificationInput{
			UserID:   profile.UserID,
			Type:     models.NotificationApprovalDecided,
			Title:    title,
			Message:  message,
			Metadata: map[string]any{"decision": profile.ApprovalStatus},
		}); err != nil {
			s.log.Warn("failed to create approval notification", zap.String("profile_id", profile.ID), zap.Error(err))
		}
	}

	err := s.emailer.ApprovalDecided(ctx, notifications.ApprovalDecision{
		Email:    profile.Email,
		FullName: profile.FullName,
		Approved: approved,
	})
	if err != nil && !errors.Is(err, mail.ErrDisabled) {
		s.log.Warn("failed to send approval email", zap.String("profile_id", profile.ID), zap.Error(err))
	}
}
