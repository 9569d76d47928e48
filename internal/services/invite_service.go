package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/pkg/crypto"
)

const (
	defaultInviteExpiry     = 7 * 24 * time.Hour
	defaultInviteTokenBytes = 24
	inviteHintLength        = 4
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL configures the base URL used to create invite links.
func WithInviteBaseURL(url string) InviteOption {
	return func(s *InviteService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// WithInviteExpiry overrides the default invite lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteTokenSize adjusts the random token length in bytes.
func WithInviteTokenSize(size int) InviteOption {
	return func(s *InviteService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// IssuedInvite is returned when a secret is minted. Token is never stored.
type IssuedInvite struct {
	Invite *models.InviteToken `json:"invite"`
	Token  string              `json:"token"`
	Link   string              `json:"link"`
}

// InviteView is an invite annotated with its state at read time.
type InviteView struct {
	models.InviteToken
	State models.InviteState `json:"state"`
}

// CreateInviteInput describes a new invite. A nil ExpiresAt uses the default lifetime.
type CreateInviteInput struct {
	Label     string
	ExpiresAt *time.Time
}

// InviteService manages registration invite tokens.
type InviteService struct {
	db          *gorm.DB
	audit       *AuditService
	baseURL     string
	expiry      time.Duration
	tokenLength int
	now         func() time.Time
}

// NewInviteService constructs an InviteService with the provided dependencies.
func NewInviteService(db *gorm.DB, audit *AuditService, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}

	service := &InviteService{
		db:          db,
		audit:       audit,
		expiry:      defaultInviteExpiry,
		tokenLength: defaultInviteTokenBytes,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Validate checks a plaintext token without side effects. It fails closed.
func (s *InviteService) Validate(ctx context.Context, token string) (*models.InviteToken, error) {
	ctx = ensureContext(ctx)
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInviteNotFound
	}

	var invite models.InviteToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", crypto.HashToken(token)).
		First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invite service: find invite: %w", err)
	}

	if err := stateError(invite.State(s.now())); err != nil {
		return &invite, err
	}
	return &invite, nil
}

// Create mints a new invite and returns its plaintext token and link.
func (s *InviteService) Create(ctx context.Context, input CreateInviteInput, createdBy string) (*IssuedInvite, error) {
	ctx = ensureContext(ctx)
	now := s.now()

	expiresAt := now.Add(s.expiry)
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(now) {
			return nil, ErrInvalidExpiry
		}
		expiresAt = *input.ExpiresAt
	}

	token, hash, err := s.newSecret()
	if err != nil {
		return nil, err
	}

	invite := models.InviteToken{
		TokenHash: hash,
		TokenHint: hint(token),
		Label:     strings.TrimSpace(input.Label),
		IsActive:  true,
		ExpiresAt: expiresAt.UTC(),
	}
	if createdBy = strings.TrimSpace(createdBy); createdBy != "" {
		invite.CreatedBy = &createdBy
	}

	if err := s.db.WithContext(ctx).Create(&invite).Error; err != nil {
		return nil, fmt.Errorf("invite service: create invite: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "invite.create",
		Resource: "invite:" + invite.ID,
		Result:   AuditResultSuccess,
		Metadata: map[string]any{"label": invite.Label, "expires_at": invite.ExpiresAt},
	})

	return &IssuedInvite{Invite: &invite, Token: token, Link: s.Link(token)}, nil
}

// List returns invites newest first, filtered by state: active, used, expired, inactive or all.
func (s *InviteService) List(ctx context.Context, status string) ([]InviteView, error) {
	ctx = ensureContext(ctx)
	now := s.now().UTC()

	query := s.db.WithContext(ctx).Model(&models.InviteToken{})
	switch models.InviteState(strings.ToLower(strings.TrimSpace(status))) {
	case "", "all":
	case models.InviteStateUsed:
		query = query.Where("used_at IS NOT NULL")
	case models.InviteStateInactive:
		query = query.Where("used_at IS NULL AND is_active = ?", false)
	case models.InviteStateExpired:
		query = query.Where("used_at IS NULL AND is_active = ? AND expires_at <= ?", true, now)
	case models.InviteStateActive:
		query = query.Where("used_at IS NULL AND is_active = ? AND expires_at > ?", true, now)
	default:
		return nil, fmt.Errorf("invite service: unknown status %q", status)
	}

	var invites []models.InviteToken
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}

	views := make([]InviteView, 0, len(invites))
	for _, invite := range invites {
		views = append(views, InviteView{InviteToken: invite, State: invite.State(now)})
	}
	return views, nil
}

// Get loads an invite by ID.
func (s *InviteService) Get(ctx context.Context, id string) (*InviteView, error) {
	invite, err := s.load(ensureContext(ctx), id)
	if err != nil {
		return nil, err
	}
	return &InviteView{InviteToken: *invite, State: invite.State(s.now())}, nil
}

// SetActive toggles an invite on or off.
func (s *InviteService) SetActive(ctx context.Context, id string, active bool) (*InviteView, error) {
	return s.update(ctx, id, "invite.set_active", map[string]any{"is_active": active})
}

// UpdateExpiry re-dates an invite. Past dates are allowed and expire it immediately.
func (s *InviteService) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) (*InviteView, error) {
	if expiresAt.IsZero() {
		return nil, ErrInvalidExpiry
	}
	return s.update(ctx, id, "invite.update_expiry", map[string]any{"expires_at": expiresAt.UTC()})
}

// Rotate replaces the secret of an unused invite. The old token stops working immediately.
func (s *InviteService) Rotate(ctx context.Context, id string) (*IssuedInvite, error) {
	ctx = ensureContext(ctx)

	invite, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if invite.UsedAt != nil {
		return nil, ErrInviteUsed
	}

	token, hash, err := s.newSecret()
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.InviteToken{}).
		Where("id = ? AND used_at IS NULL", invite.ID).
		Updates(map[string]any{"token_hash": hash, "token_hint": hint(token)})
	if result.Error != nil {
		return nil, fmt.Errorf("invite service: rotate invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInviteUsed
	}

	invite.TokenHash = hash
	invite.TokenHint = hint(token)
	recordAudit(s.audit, ctx, AuditEntry{Action: "invite.rotate", Resource: "invite:" + invite.ID, Result: AuditResultSuccess})

	return &IssuedInvite{Invite: invite, Token: token, Link: s.Link(token)}, nil
}

// Delete removes an invite. Profiles registered with it keep existing with a cleared reference.
func (s *InviteService) Delete(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Profile{}).
			Where("invite_token_id = ?", id).
			Update("invite_token_id", nil).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", id).Delete(&models.InviteToken{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrInviteNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrInviteNotFound) {
			return err
		}
		return fmt.Errorf("invite service: delete invite: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{Action: "invite.delete", Resource: "invite:" + id, Result: AuditResultSuccess})
	return nil
}

// Sweep deactivates unused invites whose expiry has passed.
func (s *InviteService) Sweep(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ensureContext(ctx)).
		Model(&models.InviteToken{}).
		Where("used_at IS NULL AND is_active = ? AND expires_at <= ?", true, s.now().UTC()).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("invite service: sweep invites: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Link builds the registration URL carrying token.
func (s *InviteService) Link(token string) string {
	query := url.Values{"invite": []string{token}}.Encode()
	if s.baseURL == "" {
		return "/register?" + query
	}
	return s.baseURL + "/register?" + query
}

// consume marks the invite used inside tx. It fails with ErrInviteUsed when another
// registration claimed it first or it stopped being usable.
func (s *InviteService) consume(tx *gorm.DB, inviteID, userID string, now time.Time) error {
	now = now.UTC()
	result := tx.Model(&models.InviteToken{}).
		Where("id = ? AND used_at IS NULL AND is_active = ? AND expires_at > ?", inviteID, true, now).
		Updates(map[string]any{
			"used_at":   now,
			"used_by":   userID,
			"is_active": false,
		})
	if result.Error != nil {
		return fmt.Errorf("invite service: consume invite: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrInviteUsed
	}
	return nil
}

func (s *InviteService) update(ctx context.Context, id, action string, updates map[string]any) (*InviteView, error) {
	ctx = ensureContext(ctx)

	invite, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(invite).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("invite service: update invite: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{Action: action, Resource: "invite:" + invite.ID, Result: AuditResultSuccess, Metadata: updates})
	return s.Get(ctx, invite.ID)
}

func (s *InviteService) load(ctx context.Context, id string) (*models.InviteToken, error) {
	var invite models.InviteToken
	if err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(id)).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}
	return &invite, nil
}

func (s *InviteService) newSecret() (token, hash string, err error) {
	token, err = crypto.GenerateToken(s.tokenLength)
	if err != nil {
		return "", "", fmt.Errorf("invite service: generate token: %w", err)
	}
	return token, crypto.HashToken(token), nil
}

func stateError(state models.InviteState) error {
	switch state {
	case models.InviteStateUsed:
		return ErrInviteUsed
	case models.InviteStateInactive:
		return ErrInviteInactive
	case models.InviteStateExpired:
		return ErrInviteExpired
	}
	return nil
}

// IsInviteError reports whether err is one of the invite rejection reasons.
func IsInviteError(err error) bool {
	return errors.Is(err, ErrInviteNotFound) ||
		errors.Is(err, ErrInviteInactive) ||
		errors.Is(err, ErrInviteUsed) ||
		errors.Is(err, ErrInviteExpired)
}

func hint(token string) string {
	if len(token) <= inviteHintLength {
		return token
	}
	return token[len(token)-inviteHintLength:]
}
