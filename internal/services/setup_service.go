package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/models"
)

// CreateAdminInput describes an administrator account.
type CreateAdminInput struct {
	Email    string
	Password string
}

// SetupService bootstraps the first administrator.
type SetupService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewSetupService constructs a SetupService.
func NewSetupService(db *gorm.DB, audit *AuditService) (*SetupService, error) {
	if db == nil {
		return nil, errors.New("setup service: db is required")
	}
	return &SetupService{db: db, audit: audit}, nil
}

// Initialized reports whether any administrator exists.
func (s *SetupService) Initialized(ctx context.Context) (bool, error) {
	return hasAdmin(s.db.WithContext(ensureContext(ctx)))
}

// Initialize creates the first administrator. It fails once one exists.
func (s *SetupService) Initialize(ctx context.Context, input CreateAdminInput) (*models.User, error) {
	return s.createAdmin(ctx, input, true)
}

// CreateAdmin creates an administrator regardless of existing ones. An existing identity with
// the same email is promoted instead.
func (s *SetupService) CreateAdmin(ctx context.Context, input CreateAdminInput) (*models.User, error) {
	return s.createAdmin(ctx, input, false)
}

func (s *SetupService) createAdmin(ctx context.Context, input CreateAdminInput, firstOnly bool) (*models.User, error) {
	ctx = ensureContext(ctx)

	candidate, err := providers.NewUser(input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if firstOnly {
			exists, err := hasAdmin(tx)
			if err != nil {
				return err
			}
			if exists {
				return ErrAlreadyInitialized
			}
		}

		var existing models.User
		err := tx.Preload("Roles").Where("email = ?", candidate.Email).First(&existing).Error
		switch {
		case err == nil:
			if firstOnly {
				return ErrEmailTaken
			}
			user = &existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(candidate).Error; err != nil {
				if isUniqueConstraintError(err) {
					return ErrEmailTaken
				}
				return err
			}
			user = candidate
		default:
			return err
		}

		for _, role := range []string{models.RoleAdmin, models.RoleUser} {
			if user.HasRole(role) {
				continue
			}
			if err := assignRole(tx, user, role); err != nil {
				return err
			}
		}
		return tx.Preload("Roles").First(user, "id = ?", user.ID).Error
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyInitialized) || errors.Is(err, ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("setup service: create admin: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   stringPtr(user.ID),
		Email:    user.Email,
		Action:   "setup.create_admin",
		Resource: "user:" + user.ID,
		Result:   AuditResultSuccess,
	})
	return user, nil
}

func hasAdmin(db *gorm.DB) (bool, error) {
	var count int64
	if err := db.Table("user_roles").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("user_roles.role_id = ? AND users.is_active = ?", models.RoleAdmin, true).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	return count > 0, nil
}
