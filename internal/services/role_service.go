package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

// RoleService grants and revokes application roles.
type RoleService struct {
	db    *gorm.DB
	audit *AuditService
}

// NewRoleService constructs a RoleService.
func NewRoleService(db *gorm.DB, audit *AuditService) (*RoleService, error) {
	if db == nil {
		return nil, errors.New("role service: db is required")
	}
	return &RoleService{db: db, audit: audit}, nil
}

// ListRoles returns every defined role.
func (s *RoleService) ListRoles(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	if err := s.db.WithContext(ensureContext(ctx)).Order("id").Find(&roles).Error; err != nil {
		return nil, fmt.Errorf("role service: list roles: %w", err)
	}
	return roles, nil
}

// ListForUser returns the roles held by userID.
func (s *RoleService) ListForUser(ctx context.Context, userID string) ([]models.Role, error) {
	user, err := s.loadUser(ensureContext(ctx), userID)
	if err != nil {
		return nil, err
	}
	return user.Roles, nil
}

// HasRole reports whether userID holds role.
func (s *RoleService) HasRole(ctx context.Context, userID, role string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ensureContext(ctx)).
		Table("user_roles").
		Where("user_id = ? AND role_id = ?", userID, role).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("role service: check role: %w", err)
	}
	return count > 0, nil
}

// Assign grants role to userID. Granting a held role is a no-op.
func (s *RoleService) Assign(ctx context.Context, userID, role, actorID string) ([]models.Role, error) {
	ctx = ensureContext(ctx)
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, ErrUnknownRole
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(role) {
		if err := assignRole(s.db.WithContext(ctx), user, role); err != nil {
			return nil, fmt.Errorf("role service: %w", err)
		}
		recordAudit(s.audit, ctx, AuditEntry{
			UserID:   stringPtr(actorID),
			Action:   "role.assign",
			Resource: "user:" + user.ID,
			Result:   AuditResultSuccess,
			Metadata: map[string]any{"role": role},
		})
	}
	return s.ListForUser(ctx, user.ID)
}

// Revoke removes role from userID. Admins cannot revoke their own admin role.
func (s *RoleService) Revoke(ctx context.Context, userID, role, actorID string) ([]models.Role, error) {
	ctx = ensureContext(ctx)
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return nil, ErrUnknownRole
	}
	if role == models.RoleAdmin && strings.TrimSpace(userID) == strings.TrimSpace(actorID) {
		return nil, ErrSelfDemotion
	}

	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.HasRole(role) {
		if err := s.db.WithContext(ctx).Model(user).Association("Roles").Delete(&models.Role{BaseModel: models.BaseModel{ID: role}}); err != nil {
			return nil, fmt.Errorf("role service: revoke role: %w", err)
		}
		recordAudit(s.audit, ctx, AuditEntry{
			UserID:   stringPtr(actorID),
			Action:   "role.revoke",
			Resource: "user:" + user.ID,
			Result:   AuditResultSuccess,
			Metadata: map[string]any{"role": role},
		})
	}
	return s.ListForUser(ctx, user.ID)
}

func (s *RoleService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Roles").Where("id = ?", strings.TrimSpace(userID)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("role service: load user: %w", err)
	}
	return &user, nil
}

func assignRole(db *gorm.DB, user *models.User, roleID string) error {
	var role models.Role
	if err := db.Where("id = ?", roleID).First(&role).Error; err != nil {
		return fmt.Errorf("load role %s: %w", roleID, err)
	}
	if err := db.Model(user).Association("Roles").Append(&role); err != nil {
		return fmt.Errorf("assign role %s: %w", roleID, err)
	}
	return nil
}
