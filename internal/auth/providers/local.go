package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/pkg/crypto"
)

var (
	// ErrInvalidCredentials is returned when the supplied email/password pair is invalid.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
	// ErrAccountLocked signals that the user has exceeded the permitted failed attempts.
	ErrAccountLocked = errors.New("auth: account locked")
	// ErrAccountDisabled signals that the user has been deactivated.
	ErrAccountDisabled = errors.New("auth: account disabled")

	ErrPasswordTooShort = errors.New("auth: password too short")
)

// MinPasswordLength matches the registration form rule.
const MinPasswordLength = 6

// LocalConfig defines tunable behaviour for the local provider.
type LocalConfig struct {
	LockoutThreshold int
	LockoutDuration  time.Duration
	Clock            func() time.Time
}

// AuthenticateInput carries the login form and client details.
type AuthenticateInput struct {
	Email     string
	Password  string
	IPAddress string
}

// LocalProvider implements email/password authentication with account lockout.
type LocalProvider struct {
	db        *gorm.DB
	clock     func() time.Time
	threshold int
	duration  time.Duration
}

// NewLocalProvider builds a provider with sane defaults.
func NewLocalProvider(db *gorm.DB, cfg LocalConfig) (*LocalProvider, error) {
	if db == nil {
		return nil, errors.New("local provider: db is required")
	}

	threshold := cfg.LockoutThreshold
	if threshold <= 0 {
		threshold = 5
	}
	duration := cfg.LockoutDuration
	if duration <= 0 {
		duration = 15 * time.Minute
	}
	clock := time.Now
	if cfg.Clock != nil {
		clock = cfg.Clock
	}

	return &LocalProvider{db: db, clock: clock, threshold: threshold, duration: duration}, nil
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NewUser builds an unsaved active user with a hashed password.
func NewUser(email, password string) (*models.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, errors.New("local provider: email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}
	hashed, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("local provider: hash password: %w", err)
	}
	return &models.User{Email: email, Password: hashed, IsActive: true}, nil
}

// Authenticate verifies credentials and returns the user with roles and profile preloaded.
func (p *LocalProvider) Authenticate(ctx context.Context, input AuthenticateInput) (*models.User, error) {
	email := NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}
	db := p.db.WithContext(ctx)

	var user models.User
	err := db.Preload("Roles").Preload("Profile").Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("local provider: query user: %w", err)
	}

	now := p.clock()
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, ErrAccountLocked
	}
	if user.LockedUntil != nil {
		user.FailedAttempts = 0
		user.LockedUntil = nil
	}

	if !crypto.VerifyPassword(user.Password, input.Password) {
		return nil, p.recordFailure(ctx, &user, now)
	}

	user.FailedAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	user.LastLoginIP = strings.TrimSpace(input.IPAddress)
	if err := db.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]any{
		"failed_attempts": 0,
		"locked_until":    nil,
		"last_login_at":   now,
		"last_login_ip":   user.LastLoginIP,
	}).Error; err != nil {
		return nil, fmt.Errorf("local provider: update user: %w", err)
	}
	return &user, nil
}

func (p *LocalProvider) recordFailure(ctx context.Context, user *models.User, now time.Time) error {
	user.FailedAttempts++
	updates := map[string]any{"failed_attempts": user.FailedAttempts, "locked_until": nil}

	locked := user.FailedAttempts >= p.threshold
	if locked {
		until := now.Add(p.duration)
		user.LockedUntil = &until
		updates["locked_until"] = until
	}

	if err := p.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return fmt.Errorf("local provider: update failed attempts: %w", err)
	}
	if locked {
		return ErrAccountLocked
	}
	return ErrInvalidCredentials
}

// ChangePassword replaces the password after verifying the current one.
func (p *LocalProvider) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if len(newPassword) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	var user models.User
	if err := p.db.WithContext(ctx).Take(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("local provider: find user: %w", err)
	}
	if !crypto.VerifyPassword(user.Password, currentPassword) {
		return ErrInvalidCredentials
	}

	hashed, err := crypto.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("local provider: hash password: %w", err)
	}
	if err := p.db.WithContext(ctx).Model(&user).Update("password", hashed).Error; err != nil {
		return fmt.Errorf("local provider: update password: %w", err)
	}
	return nil
}
