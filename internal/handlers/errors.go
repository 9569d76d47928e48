package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/auth"
	"github.com/ud28188-create/codonyx.org/internal/auth/mfa"
	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/services"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

var (
	errInviteInvalid      = appErrors.New("INVITE_INVALID", "Invalid invitation", http.StatusBadRequest)
	errEmailTaken         = appErrors.NewConflict("EMAIL_TAKEN", "An account with this email already exists")
	errConnectionExists   = appErrors.NewConflict("CONNECTION_EXISTS", "A connection between these profiles already exists")
	errInvalidTransition  = appErrors.NewConflict("INVALID_TRANSITION", "The requested status change is not allowed")
	errAlreadyInitialized = appErrors.NewConflict("ALREADY_INITIALIZED", "An administrator already exists")
	errSessionInvalid     = appErrors.New("SESSION_INVALID", "Session is invalid or expired", http.StatusUnauthorized)
	errAccountLocked      = appErrors.New("ACCOUNT_LOCKED", "Too many failed attempts; try again later", http.StatusLocked)
	errAccountDisabled    = appErrors.New("ACCOUNT_DISABLED", "Account is disabled", http.StatusForbidden)
)

// renderServiceError maps service sentinels onto API errors and writes the envelope.
func renderServiceError(c *gin.Context, err error) {
	response.Error(c, mapServiceError(err))
}

func mapServiceError(err error) error {
	var appErr *appErrors.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case services.IsInviteError(err):
		return errInviteInvalid.WithInternal(err)
	case errors.Is(err, services.ErrInvalidExpiry):
		return appErrors.NewBadRequest("Expiry must be in the future")
	case errors.Is(err, services.ErrEmailTaken):
		return errEmailTaken
	case errors.Is(err, services.ErrProfileNotFound):
		return appErrors.NewNotFound("profile")
	case errors.Is(err, services.ErrInvalidDecision):
		return appErrors.NewBadRequest("Decision must be approved or rejected")
	case errors.Is(err, services.ErrInvalidTransition):
		return errInvalidTransition
	case errors.Is(err, services.ErrSelfConnection):
		return appErrors.NewBadRequest("You cannot connect with yourself")
	case errors.Is(err, services.ErrSenderNotApproved):
		return appErrors.New(appErrors.ErrForbidden.Code, "Your profile must be approved before sending connection requests", http.StatusForbidden)
	case errors.Is(err, services.ErrConnectionExists):
		return errConnectionExists
	case errors.Is(err, services.ErrConnectionNotFound):
		return appErrors.NewNotFound("connection")
	case errors.Is(err, services.ErrNotReceiver):
		return appErrors.New(appErrors.ErrForbidden.Code, "Only the receiver may respond to this request", http.StatusForbidden)
	case errors.Is(err, services.ErrInvalidResponse):
		return appErrors.NewBadRequest("Status must be accepted or rejected")
	case errors.Is(err, services.ErrPublicationNotFound):
		return appErrors.NewNotFound("publication")
	case errors.Is(err, services.ErrInvalidPublication):
		return appErrors.NewBadRequest(err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return appErrors.NewNotFound("user")
	case errors.Is(err, services.ErrUnknownRole):
		return appErrors.NewBadRequest("Unknown role")
	case errors.Is(err, services.ErrSelfDemotion):
		return appErrors.NewBadRequest("You cannot revoke your own admin role")
	case errors.Is(err, services.ErrNotificationNotFound):
		return appErrors.NewNotFound("notification")
	case errors.Is(err, services.ErrAlreadyInitialized):
		return errAlreadyInitialized
	case errors.Is(err, providers.ErrInvalidCredentials):
		return appErrors.ErrInvalidCredentials
	case errors.Is(err, providers.ErrAccountLocked):
		return errAccountLocked
	case errors.Is(err, providers.ErrAccountDisabled):
		return errAccountDisabled
	case errors.Is(err, providers.ErrPasswordTooShort):
		return appErrors.NewBadRequest(err.Error())
	case errors.Is(err, mfa.ErrNotEnrolled):
		return appErrors.NewBadRequest("MFA enrollment has not been started")
	case errors.Is(err, mfa.ErrInvalidCode), errors.Is(err, mfa.ErrCodeReplayed):
		return appErrors.ErrMFAInvalid
	case errors.Is(err, auth.ErrSessionNotFound),
		errors.Is(err, auth.ErrSessionRevoked),
		errors.Is(err, auth.ErrSessionExpired),
		errors.Is(err, auth.ErrSessionInvalidToken):
		return errSessionInvalid
	default:
		return appErrors.ErrInternalServer.WithInternal(err)
	}
}
