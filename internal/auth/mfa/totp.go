package mfa

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/pkg/crypto"
)

const (
	defaultIssuer     = "Codonyx"
	defaultQRCodeSize = 256
	period            = 30
)

var (
	ErrNotEnrolled  = errors.New("totp: not enrolled")
	ErrInvalidCode  = errors.New("totp: invalid code")
	ErrCodeReplayed = errors.New("totp: code already used")
)

// Option allows customising the TOTP service.
type Option func(*TOTPService)

// WithIssuer overrides the issuer shown in authenticator apps.
func WithIssuer(issuer string) Option {
	return func(s *TOTPService) {
		if strings.TrimSpace(issuer) != "" {
			s.issuer = issuer
		}
	}
}

// WithQRCodeSize controls the pixel size of generated QR codes.
func WithQRCodeSize(size int) Option {
	return func(s *TOTPService) {
		if size > 0 {
			s.qrCodeSize = size
		}
	}
}

// WithClock injects a custom clock, primarily for testing.
func WithClock(clock func() time.Time) Option {
	return func(s *TOTPService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// Enrollment is returned once when a user starts MFA setup.
type Enrollment struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauth_url"`
	QRCode     []byte `json:"-"`
}

// TOTPService stores sealed TOTP secrets and verifies codes with replay protection.
type TOTPService struct {
	db            *gorm.DB
	encryptionKey []byte

	issuer     string
	qrCodeSize int
	now        func() time.Time
}

// NewTOTPService constructs a TOTP service backed by the provided database.
func NewTOTPService(db *gorm.DB, encryptionKey []byte, opts ...Option) (*TOTPService, error) {
	if db == nil {
		return nil, errors.New("totp: db is required")
	}
	if len(encryptionKey) != 32 {
		return nil, errors.New("totp: encryption key must be 32 bytes")
	}

	service := &TOTPService{
		db:            db,
		encryptionKey: encryptionKey,
		issuer:        defaultIssuer,
		qrCodeSize:    defaultQRCodeSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Enroll provisions a fresh, unconfirmed secret for userID, replacing any previous one.
func (s *TOTPService) Enroll(ctx context.Context, userID, account string) (*Enrollment, error) {
	userID = strings.TrimSpace(userID)
	account = strings.TrimSpace(account)
	if userID == "" || account == "" {
		return nil, errors.New("totp: user id and account are required")
	}

	key, err := totp.Generate(totp.GenerateOpts{Issuer: s.issuer, AccountName: account})
	if err != nil {
		return nil, fmt.Errorf("totp: generate key: %w", err)
	}

	sealed, err := crypto.Seal([]byte(key.Secret()), s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("totp: seal secret: %w", err)
	}

	record := models.MFASecret{UserID: userID, Secret: sealed}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"secret":         sealed,
			"confirmed_at":   nil,
			"last_used_step": 0,
			"updated_at":     s.now(),
		}),
	}).Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("totp: store secret: %w", err)
	}

	png, err := s.QRCode(key)
	if err != nil {
		return nil, err
	}
	return &Enrollment{Secret: key.Secret(), OTPAuthURL: key.URL(), QRCode: png}, nil
}

// Confirm verifies the first code after enrolment and switches MFA on for the user.
func (s *TOTPService) Confirm(ctx context.Context, userID, code string) error {
	if err := s.Verify(ctx, userID, code); err != nil {
		return err
	}

	now := s.now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.MFASecret{}).Where("user_id = ?", userID).Update("confirmed_at", now).Error; err != nil {
			return fmt.Errorf("totp: confirm secret: %w", err)
		}
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("mfa_enabled", true).Error; err != nil {
			return fmt.Errorf("totp: enable mfa: %w", err)
		}
		return nil
	})
}

// Verify checks code against the stored secret, allowing one step of clock skew.
// A step that has already been accepted cannot be used again.
func (s *TOTPService) Verify(ctx context.Context, userID, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidCode
	}

	var secret models.MFASecret
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Take(&secret).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEnrolled
		}
		return fmt.Errorf("totp: load secret: %w", err)
	}

	raw, err := crypto.Open(secret.Secret, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("totp: open secret: %w", err)
	}

	step, ok := s.matchStep(string(raw), code)
	if !ok {
		return ErrInvalidCode
	}
	if step <= secret.LastUsedStep {
		return ErrCodeReplayed
	}

	result := s.db.WithContext(ctx).Model(&models.MFASecret{}).
		Where("id = ? AND last_used_step < ?", secret.ID, step).
		Update("last_used_step", step)
	if result.Error != nil {
		return fmt.Errorf("totp: record step: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCodeReplayed
	}
	return nil
}

// Disable removes the secret and clears the user's MFA flag.
func (s *TOTPService) Disable(ctx context.Context, userID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.MFASecret{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Update("mfa_enabled", false).Error
	})
}

// QRCode renders the provisioning URI as a PNG.
func (s *TOTPService) QRCode(key *otp.Key) ([]byte, error) {
	if key == nil {
		return nil, errors.New("totp: key is required")
	}
	png, err := qrcode.Encode(key.String(), qrcode.Medium, s.qrCodeSize)
	if err != nil {
		return nil, fmt.Errorf("totp: render qr code: %w", err)
	}
	return png, nil
}

func (s *TOTPService) matchStep(secret, code string) (int64, bool) {
	now := s.now()
	for _, skew := range []int64{0, -1, 1} {
		at := now.Add(time.Duration(skew*period) * time.Second)
		expected, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
			Period:    period,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return at.Unix() / period, true
		}
	}
	return 0, false
}
