package services

import "errors"

var (
	// ErrInviteNotFound indicates no invite matches the provided token.
	ErrInviteNotFound = errors.New("invite: not found")
	// ErrInviteInactive indicates an admin switched the invite off.
	ErrInviteInactive = errors.New("invite: inactive")
	// ErrInviteUsed signals that the invite already admitted a registration.
	ErrInviteUsed = errors.New("invite: already used")
	// ErrInviteExpired indicates the invite token has expired.
	ErrInviteExpired = errors.New("invite: expired")
	ErrInvalidExpiry = errors.New("invite: expiry must be in the future")

	ErrEmailTaken = errors.New("registration: email already registered")

	ErrProfileNotFound   = errors.New("profile: not found")
	ErrInvalidDecision   = errors.New("approval: decision must be approved or rejected")
	ErrInvalidTransition = errors.New("state: invalid transition")

	ErrSelfConnection     = errors.New("connection: cannot connect to yourself")
	ErrSenderNotApproved  = errors.New("connection: sender profile is not approved")
	ErrConnectionExists   = errors.New("connection: already exists")
	ErrConnectionNotFound = errors.New("connection: not found")
	ErrNotReceiver        = errors.New("connection: only the receiver may respond")
	ErrInvalidResponse    = errors.New("connection: response must be accepted or rejected")

	ErrPublicationNotFound = errors.New("publication: not found")
	ErrInvalidPublication  = errors.New("publication: invalid input")

	ErrUserNotFound = errors.New("user: not found")
	ErrUnknownRole  = errors.New("role: unknown role")
	ErrSelfDemotion = errors.New("role: cannot revoke your own admin role")

	ErrNotificationNotFound = errors.New("notification: not found")

	ErrAlreadyInitialized = errors.New("setup: already initialized")
)
