package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/pkg/logger"
	"github.com/ud28188-create/codonyx.org/pkg/metrics"
)

// RegistrationInput is a validated sign-up form.
type RegistrationInput struct {
	Email       string
	Password    string
	FullName    string
	UserType    models.UserType
	InviteToken string
	Fields      ProfileFields
	Avatar      *Upload
}

// RegistrationService turns an invite into an identity with a pending profile.
type RegistrationService struct {
	db            *gorm.DB
	invites       *InviteService
	profiles      *ProfileService
	notifications *NotificationService
	audit         *AuditService
	log           *zap.Logger
}

// NewRegistrationService wires the registration workflow. profiles and notifications may be nil.
func NewRegistrationService(db *gorm.DB, invites *InviteService, profiles *ProfileService, notifications *NotificationService, audit *AuditService) (*RegistrationService, error) {
	if db == nil {
		return nil, errors.New("registration service: db is required")
	}
	if invites == nil {
		return nil, errors.New("registration service: invite service is required")
	}
	return &RegistrationService{
		db:            db,
		invites:       invites,
		profiles:      profiles,
		notifications: notifications,
		audit:         audit,
		log:           logger.WithModule("registration"),
	}, nil
}

// Register creates the identity, its user role, a pending profile and consumes the invite in
// one transaction. The avatar is uploaded after commit and its failure is only logged. No
// session is issued: the member signs in once an admin approves the profile.
func (s *RegistrationService) Register(ctx context.Context, input RegistrationInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	profile, err := s.register(ctx, input)
	if err != nil {
		metrics.Registrations.WithLabelValues(registrationResult(err)).Inc()
		recordAudit(s.audit, ctx, AuditEntry{
			Email:    providers.NormalizeEmail(input.Email),
			Action:   "registration.create",
			Resource: "profile",
			Result:   AuditResultFailure,
			Metadata: map[string]any{"reason": err.Error()},
		})
		return nil, err
	}
	metrics.Registrations.WithLabelValues("success").Inc()

	if input.Avatar != nil && s.profiles != nil {
		if err := s.profiles.storeAvatar(ctx, profile, *input.Avatar); err != nil {
			s.log.Warn("avatar upload failed; profile kept without avatar",
				zap.String("profile_id", profile.ID), zap.Error(err))
		}
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   stringPtr(profile.UserID),
		Email:    profile.Email,
		Action:   "registration.create",
		Resource: "profile:" + profile.ID,
		Result:   AuditResultSuccess,
		Metadata: map[string]any{"user_type": profile.UserType},
	})

	if s.notifications != nil {
		if err := s.notifications.NotifyAdmins(ctx, CreateNotificationInput{
			Type:      models.NotificationRegistrationPending,
			Title:     "New registration pending",
			Message:   fmt.Sprintf("%s registered as %s and is awaiting approval.", profile.FullName, profile.UserType),
			ActionURL: "/admin",
			Metadata:  map[string]any{"profile_id": profile.ID},
		}); err != nil {
			s.log.Warn("failed to notify admins of registration", zap.String("profile_id", profile.ID), zap.Error(err))
		}
	}

	return profile, nil
}

func (s *RegistrationService) register(ctx context.Context, input RegistrationInput) (*models.Profile, error) {
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, errors.New("registration service: full name is required")
	}
	if _, ok := models.ParseUserType(string(input.UserType)); !ok {
		return nil, fmt.Errorf("registration service: unknown user type %q", input.UserType)
	}

	invite, err := s.invites.Validate(ctx, input.InviteToken)
	if err != nil {
		return nil, err
	}

	user, err := providers.NewUser(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	profile := &models.Profile{
		UserType:       input.UserType,
		ApprovalStatus: models.ApprovalPending,
		InviteTokenID:  &invite.ID,
		FullName:       fullName,
		Email:          user.Email,
	}
	input.Fields.apply(profile)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrEmailTaken
		}

		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return err
		}

		if err := assignRole(tx, user, models.RoleUser); err != nil {
			return err
		}

		profile.UserID = user.ID
		if err := tx.Create(profile).Error; err != nil {
			return err
		}

		return s.invites.consume(tx, invite.ID, user.ID, s.invites.now())
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) || IsInviteError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("registration service: %w", err)
	}

	return profile, nil
}

func registrationResult(err error) string {
	switch {
	case IsInviteError(err):
		return "invite_invalid"
	case errors.Is(err, ErrEmailTaken):
		return "conflict"
	default:
		return "error"
	}
}
