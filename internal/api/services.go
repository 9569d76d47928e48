package api

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/app"
	"github.com/ud28188-create/codonyx.org/internal/notifications"
	"github.com/ud28188-create/codonyx.org/internal/realtime"
	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/internal/storage"
	"github.com/ud28188-create/codonyx.org/pkg/mail"
)

// Services bundles the domain services shared by the HTTP layer, the CLI and the scheduler.
type Services struct {
	Audit         *services.AuditService
	Users         *services.UserService
	Invites       *services.InviteService
	Profiles      *services.ProfileService
	Registrations *services.RegistrationService
	Approvals     *services.ApprovalService
	Connections   *services.ConnectionService
	Directory     *services.DirectoryService
	Publications  *services.PublicationService
	Roles         *services.RoleService
	Notifications *services.NotificationService
	Setup         *services.SetupService
}

// NewServices constructs every domain service. hub, store and mailer may be nil.
func NewServices(db *gorm.DB, cfg *app.Config, hub *realtime.Hub, store storage.Store, mailer mail.Mailer) (*Services, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	var (
		svc Services
		err error
	)
	emailer := notifications.NewEmailer(mailer, cfg.App.Name, cfg.App.BaseURL)

	if svc.Audit, err = services.NewAuditService(db); err != nil {
		return nil, err
	}
	if svc.Users, err = services.NewUserService(db); err != nil {
		return nil, err
	}
	if svc.Notifications, err = services.NewNotificationService(db, hub); err != nil {
		return nil, err
	}
	if svc.Invites, err = services.NewInviteService(db, svc.Audit,
		services.WithInviteBaseURL(cfg.App.BaseURL),
		services.WithInviteExpiry(cfg.Invites.TTL),
		services.WithInviteTokenSize(cfg.Invites.TokenLength),
	); err != nil {
		return nil, err
	}
	if svc.Profiles, err = services.NewProfileService(db, store, svc.Audit); err != nil {
		return nil, err
	}
	if svc.Registrations, err = services.NewRegistrationService(db, svc.Invites, svc.Profiles, svc.Notifications, svc.Audit); err != nil {
		return nil, err
	}
	if svc.Approvals, err = services.NewApprovalService(db, svc.Notifications, emailer, svc.Audit); err != nil {
		return nil, err
	}
	if svc.Connections, err = services.NewConnectionService(db, svc.Notifications, emailer, svc.Audit); err != nil {
		return nil, err
	}
	if svc.Directory, err = services.NewDirectoryService(db); err != nil {
		return nil, err
	}
	if svc.Publications, err = services.NewPublicationService(db, store, svc.Audit); err != nil {
		return nil, err
	}
	if svc.Roles, err = services.NewRoleService(db, svc.Audit); err != nil {
		return nil, err
	}
	if svc.Setup, err = services.NewSetupService(db, svc.Audit); err != nil {
		return nil, err
	}
	return &svc, nil
}
