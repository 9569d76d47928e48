package viewer

import (
	"context"

	"github.com/ud28188-create/codonyx.org/internal/models"
)

// Viewer is the caller resolved once per request by the session middleware.
type Viewer struct {
	UserID    string
	Email     string
	SessionID string
	Roles     []string
	Profile   *models.Profile

	IPAddress string
	UserAgent string
}

// FromUser builds a Viewer from a user loaded with Roles and Profile.
func FromUser(user *models.User, sessionID string) Viewer {
	if user == nil {
		return Viewer{SessionID: sessionID}
	}
	return Viewer{
		UserID:    user.ID,
		Email:     user.Email,
		SessionID: sessionID,
		Roles:     user.RoleIDs(),
		Profile:   user.Profile,
	}
}

// HasRole reports whether the viewer holds role.
func (v Viewer) HasRole(role string) bool {
	for _, candidate := range v.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

func (v Viewer) IsAdmin() bool {
	return v.HasRole(models.RoleAdmin)
}

// ProfileID returns the viewer's profile ID, or "" when the identity has no profile.
func (v Viewer) ProfileID() string {
	if v.Profile == nil {
		return ""
	}
	return v.Profile.ID
}

// ApprovalStatus returns the profile's moderation state. Admins without a profile count as approved.
func (v Viewer) ApprovalStatus() models.ApprovalStatus {
	if v.Profile != nil {
		return v.Profile.ApprovalStatus
	}
	if v.IsAdmin() {
		return models.ApprovalApproved
	}
	return models.ApprovalPending
}

// CanBrowse reports whether the viewer may use member surfaces.
func (v Viewer) CanBrowse() bool {
	return v.IsAdmin() || v.Profile.IsApproved()
}

type viewerContextKey struct{}

// WithViewer stores v on ctx so service layers can read the caller for auditing.
func WithViewer(ctx context.Context, v Viewer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, viewerContextKey{}, v)
}

// FromContext extracts the viewer previously stored with WithViewer.
func FromContext(ctx context.Context) (Viewer, bool) {
	if ctx == nil {
		return Viewer{}, false
	}
	v, ok := ctx.Value(viewerContextKey{}).(Viewer)
	return v, ok
}
