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

// Connection status as seen from one side of the pair.
const (
	StatusNone            = "none"
	StatusPendingSent     = "pending_sent"
	StatusPendingReceived = "pending_received"
	StatusAccepted        = "accepted"
	StatusRejected        = "rejected"
)

// ConnectionStatus is the viewer-relative state of a pair.
type ConnectionStatus struct {
	Status       string `json:"status"`
	ConnectionID string `json:"connection_id,omitempty"`
}

// ConnectionView is a connection with the counterpart's summary.
type ConnectionView struct {
	ID          string                  `json:"id"`
	Status      models.ConnectionStatus `json:"status"`
	CreatedAt   time.Time               `json:"created_at"`
	RespondedAt *time.Time              `json:"responded_at,omitempty"`
	Profile     models.ProfileSummary   `json:"profile"`
}

// ConnectionLists groups a member's connections.
type ConnectionLists struct {
	Accepted        []ConnectionView `json:"accepted"`
	PendingSent     []ConnectionView `json:"pending_sent"`
	PendingReceived []ConnectionView `json:"pending_received"`
}

// ConnectionService runs the request/accept/reject state machine between profiles.
type ConnectionService struct {
	db            *gorm.DB
	notifications *NotificationService
	emailer       *notifications.Emailer
	audit         *AuditService
	now           func() time.Time
	log           *zap.Logger
}

// NewConnectionService constructs a ConnectionService. notifier and emailer may be nil.
func NewConnectionService(db *gorm.DB, notifier *NotificationService, emailer *notifications.Emailer, audit *AuditService) (*ConnectionService, error) {
	if db == nil {
		return nil, errors.New("connection service: db is required")
	}
	return &ConnectionService{
		db:            db,
		notifications: notifier,
		emailer:       emailer,
		audit:         audit,
		now:           time.Now,
		log:           logger.WithModule("connections"),
	}, nil
}

// Request creates a pending connection from sender to receiver. A row between the pair in
// either direction makes it fail with ErrConnectionExists. Email and in-app notification are
// best-effort.
func (s *ConnectionService) Request(ctx context.Context, senderProfileID, receiverProfileID string) (*models.Connection, error) {
	ctx = ensureContext(ctx)
	senderProfileID = strings.TrimSpace(senderProfileID)
	receiverProfileID = strings.TrimSpace(receiverProfileID)

	if senderProfileID == "" || receiverProfileID == "" {
		return nil, ErrProfileNotFound
	}
	if senderProfileID == receiverProfileID {
		return nil, ErrSelfConnection
	}

	db := s.db.WithContext(ctx)
	sender, err := loadProfile(db, "id = ?", senderProfileID)
	if err != nil {
		return nil, err
	}
	if !sender.IsApproved() {
		return nil, ErrSenderNotApproved
	}
	receiver, err := loadProfile(db, "id = ?", receiverProfileID)
	if err != nil {
		return nil, err
	}
	if !receiver.IsApproved() {
		return nil, ErrProfileNotFound
	}

	connection := models.Connection{
		SenderID:   sender.ID,
		ReceiverID: receiver.ID,
		PairKey:    models.ConnectionPairKey(sender.ID, receiver.ID),
		Status:     models.ConnectionPending,
	}

	var existing int64
	if err := db.Model(&models.Connection{}).Where("pair_key = ?", connection.PairKey).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("connection service: check existing: %w", err)
	}
	if existing > 0 {
		metrics.ConnectionRequests.WithLabelValues("conflict").Inc()
		return nil, ErrConnectionExists
	}

	if err := db.Create(&connection).Error; err != nil {
		if isUniqueConstraintError(err) {
			metrics.ConnectionRequests.WithLabelValues("conflict").Inc()
			return nil, ErrConnectionExists
		}
		return nil, fmt.Errorf("connection service: create connection: %w", err)
	}
	metrics.ConnectionRequests.WithLabelValues("created").Inc()

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:   stringPtr(sender.UserID),
		Action:   "connection.request",
		Resource: "connection:" + connection.ID,
		Result:   AuditResultSuccess,
		Metadata: map[string]any{"receiver_id": receiver.ID},
	})

	s.notifyRequested(ctx, &connection, sender, receiver)
	return &connection, nil
}

// Status reports the pair's state from the viewer's side with one lookup on the pair key.
func (s *ConnectionService) Status(ctx context.Context, viewerProfileID, targetProfileID string) (ConnectionStatus, error) {
	ctx = ensureContext(ctx)
	if viewerProfileID == "" || targetProfileID == "" || viewerProfileID == targetProfileID {
		return ConnectionStatus{Status: StatusNone}, nil
	}

	var connection models.Connection
	err := s.db.WithContext(ctx).
		Where("pair_key = ?", models.ConnectionPairKey(viewerProfileID, targetProfileID)).
		Take(&connection).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ConnectionStatus{Status: StatusNone}, nil
	}
	if err != nil {
		return ConnectionStatus{}, fmt.Errorf("connection service: load status: %w", err)
	}

	return ConnectionStatus{
		Status:       relativeStatus(&connection, viewerProfileID),
		ConnectionID: connection.ID,
	}, nil
}

// Respond lets the receiver accept or reject a pending request. Re-submitting the current
// status changes nothing.
func (s *ConnectionService) Respond(ctx context.Context, viewerProfileID, connectionID string, status models.ConnectionStatus) (*models.Connection, error) {
	ctx = ensureContext(ctx)
	if status != models.ConnectionAccepted && status != models.ConnectionRejected {
		return nil, ErrInvalidResponse
	}

	connection, err := s.load(ctx, connectionID, viewerProfileID)
	if err != nil {
		return nil, err
	}
	if connection.ReceiverID != viewerProfileID {
		return nil, ErrNotReceiver
	}
	if connection.Status == status {
		return connection, nil
	}
	if connection.Status != models.ConnectionPending {
		return nil, ErrInvalidTransition
	}

	now := s.now().UTC()
	result := s.db.WithContext(ctx).Model(&models.Connection{}).
		Where("id = ? AND status = ?", connection.ID, models.ConnectionPending).
		Updates(map[string]any{"status": status, "responded_at": now})
	if result.Error != nil {
		return nil, fmt.Errorf("connection service: respond: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}
	connection.Status = status
	connection.RespondedAt = &now

	recordAudit(s.audit, ctx, AuditEntry{
		Action:   "connection.respond",
		Resource: "connection:" + connection.ID,
		Result:   AuditResultSuccess,
		Metadata: map[string]any{"status": status},
	})

	if status == models.ConnectionAccepted {
		s.notifyAccepted(ctx, connection)
	}
	return connection, nil
}

// Remove deletes a connection the viewer is party to, allowing either side to request again.
func (s *ConnectionService) Remove(ctx context.Context, viewerProfileID, connectionID string) error {
	ctx = ensureContext(ctx)

	connection, err := s.load(ctx, connectionID, viewerProfileID)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(connection).Error; err != nil {
		return fmt.Errorf("connection service: delete connection: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{Action: "connection.remove", Resource: "connection:" + connection.ID, Result: AuditResultSuccess})
	return nil
}

// List returns the viewer's accepted connections and pending requests in both directions.
// Rejected rows are omitted.
func (s *ConnectionService) List(ctx context.Context, viewerProfileID string) (*ConnectionLists, error) {
	ctx = ensureContext(ctx)

	var rows []models.Connection
	if err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("(sender_id = ? OR receiver_id = ?) AND status <> ?", viewerProfileID, viewerProfileID, models.ConnectionRejected).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("connection service: list connections: %w", err)
	}

	lists := &ConnectionLists{
		Accepted:        []ConnectionView{},
		PendingSent:     []ConnectionView{},
		PendingReceived: []ConnectionView{},
	}
	for i := range rows {
		row := &rows[i]
		counterpart := row.Receiver
		if row.ReceiverID == viewerProfileID {
			counterpart = row.Sender
		}
		if counterpart == nil {
			continue
		}
		view := ConnectionView{
			ID:          row.ID,
			Status:      row.Status,
			CreatedAt:   row.CreatedAt,
			RespondedAt: row.RespondedAt,
			Profile:     counterpart.Summary(),
		}
		switch relativeStatus(row, viewerProfileID) {
		case StatusAccepted:
			lists.Accepted = append(lists.Accepted, view)
		case StatusPendingSent:
			lists.PendingSent = append(lists.PendingSent, view)
		case StatusPendingReceived:
			lists.PendingReceived = append(lists.PendingReceived, view)
		}
	}
	return lists, nil
}

func (s *ConnectionService) load(ctx context.Context, connectionID, viewerProfileID string) (*models.Connection, error) {
	var connection models.Connection
	if err := s.db.WithContext(ctx).Where("id = ?", strings.TrimSpace(connectionID)).First(&connection).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("connection service: load connection: %w", err)
	}
	if !connection.Involves(viewerProfileID) {
		return nil, ErrConnectionNotFound
	}
	return &connection, nil
}

func (s *ConnectionService) notifyRequested(ctx context.Context, connection *models.Connection, sender, receiver *models.Profile) {
	if s.notifications != nil {
		if _, err := s.notifications.Create(ctx, CreateNotificationInput{
			UserID:    receiver.UserID,
			Type:      models.NotificationConnectionRequested,
			Title:     "New connection request",
			Message:   sender.FullName + " would like to connect with you.",
			ActionURL: "/connections",
			Metadata:  map[string]any{"connection_id": connection.ID, "profile_id": sender.ID},
		}); err != nil {
			s.log.Warn("failed to create connection notification", zap.String("connection_id", connection.ID), zap.Error(err))
		}
	}

	err := s.emailer.ConnectionRequested(ctx, notifications.ConnectionRequest{
		RecipientEmail:     receiver.Email,
		RecipientName:      receiver.FullName,
		SenderName:         sender.FullName,
		SenderHeadline:     models.Deref(sender.Headline),
		SenderOrganisation: models.Deref(sender.Organisation),
		SenderBio:          models.Deref(sender.Bio),
	})
	if err != nil && !errors.Is(err, mail.ErrDisabled) {
		s.log.Warn("failed to send connection email", zap.String("connection_id", connection.ID), zap.Error(err))
	}
}

func (s *ConnectionService) notifyAccepted(ctx context.Context, connection *models.Connection) {
	if s.notifications == nil {
		return
	}
	db := s.db.WithContext(ctx)
	sender, err := loadProfile(db, "id = ?", connection.SenderID)
	if err != nil {
		return
	}
	receiver, err := loadProfile(db, "id = ?", connection.ReceiverID)
	if err != nil {
		return
	}
	if _, err := s.notifications.Create(ctx, CreateNotificationInput{
		UserID:    sender.UserID,
		Type:      models.NotificationConnectionAccepted,
		Title:     "Connection accepted",
		Message:   receiver.FullName + " accepted your connection request.",
		ActionURL: "/connections",
		Metadata:  map[string]any{"connection_id": connection.ID, "profile_id": receiver.ID},
	}); err != nil {
		s.log.Warn("failed to create acceptance notification", zap.String("connection_id", connection.ID), zap.Error(err))
	}
}

func relativeStatus(connection *models.Connection, viewerProfileID string) string {
	switch connection.Status {
	case models.ConnectionAccepted:
		return StatusAccepted
	case models.ConnectionRejected:
		return StatusRejected
	case models.ConnectionPending:
		if connection.SenderID == viewerProfileID {
			return StatusPendingSent
		}
		return StatusPendingReceived
	}
	return StatusNone
}
