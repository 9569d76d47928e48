package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

const (
	// MFAEncryptionKeySetting persists a generated MFA key so sealed secrets survive restarts.
	MFAEncryptionKeySetting = "auth.mfa.encryption_key"
	SetupCompletedSetting   = "setup.completed_at"
)

// GetSystemSetting retrieves a system setting by key. Returns an empty string when not found.
func GetSystemSetting(ctx context.Context, db *gorm.DB, key string) (string, error) {
	if db == nil {
		return "", errors.New("system settings: db is nil")
	}

	var setting models.SystemSetting
	err := db.WithContext(ctx).
		Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: key}).
		Take(&setting).Error
	switch {
	case err == nil:
		return setting.Value, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return "", nil
	default:
		return "", fmt.Errorf("system settings: get %q: %w", key, err)
	}
}

// UpsertSystemSetting stores or replaces a system setting value.
func UpsertSystemSetting(ctx context.Context, db *gorm.DB, key, value string) error {
	if db == nil {
		return errors.New("system settings: db is nil")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("system settings: key is required")
	}

	record := models.SystemSetting{Key: key, Value: value}
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("system settings: upsert %q: %w", key, err)
	}
	return nil
}

// ResolveMFAKey returns the configured key when set, otherwise the persisted one,
// storing generated as the persisted key the first time.
func ResolveMFAKey(ctx context.Context, db *gorm.DB, configured, generated string) (string, error) {
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}

	stored, err := GetSystemSetting(ctx, db, MFAEncryptionKeySetting)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(stored) != "" {
		return stored, nil
	}

	generated = strings.TrimSpace(generated)
	if generated == "" {
		return "", errors.New("system settings: no mfa key available")
	}
	if err := UpsertSystemSetting(ctx, db, MFAEncryptionKeySetting, generated); err != nil {
		return "", err
	}
	return generated, nil
}
