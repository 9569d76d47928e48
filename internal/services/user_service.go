package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

// UserService loads identities for the session middleware.
type UserService struct {
	db *gorm.DB
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db}, nil
}

// Load returns the user with roles and profile preloaded.
func (s *UserService) Load(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ensureContext(ctx)).
		Preload("Roles").
		Preload("Profile").
		Where("id = ?", strings.TrimSpace(userID)).
		First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}
	return &user, nil
}
