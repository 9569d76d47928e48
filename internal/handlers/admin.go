package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/services"
	appErrors "github.com/ud28188-create/codonyx.org/pkg/errors"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// AdminHandler serves the moderation console: profile review and the audit trail.
type AdminHandler struct {
	approvals *services.ApprovalService
	profiles  *services.ProfileService
	audit     *services.AuditService
}

func NewAdminHandler(approvals *services.ApprovalService, profiles *services.ProfileService, audit *services.AuditService) *AdminHandler {
	return &AdminHandler{approvals: approvals, profiles: profiles, audit: audit}
}

type decisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// GET /api/admin/profiles?status=pending&user_type=advisor&page=1&per_page=50
func (h *AdminHandler) ListProfiles(c *gin.Context) {
	opts := services.ProfileListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && raw != "all" {
		status, ok := models.ParseApprovalStatus(raw)
		if !ok {
			response.Error(c, appErrors.NewBadRequest("status must be pending, approved, rejected or all"))
			return
		}
		opts.Status = status
	}
	if raw := strings.TrimSpace(c.Query("user_type")); raw != "" {
		userType, ok := models.ParseUserType(raw)
		if !ok {
			response.Error(c, appErrors.NewBadRequest("user_type must be advisor or laboratory"))
			return
		}
		opts.UserType = userType
	}

	profiles, total, err := h.approvals.ListProfiles(requestContext(c), opts)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	page, perPage := pageBounds(opts.Page, opts.PageSize)
	response.SuccessWithMeta(c, http.StatusOK, profiles, response.NewMeta(page, perPage, int(total)))
}

// GET /api/admin/profiles/pending
func (h *AdminHandler) PendingProfiles(c *gin.Context) {
	profiles, err := h.approvals.ListPending(requestContext(c))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profiles)
}

// GET /api/admin/profiles/:id
func (h *AdminHandler) GetProfile(c *gin.Context) {
	profile, err := h.profiles.Get(requestContext(c), c.Param("id"))
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// POST /api/admin/profiles/:id/decision
func (h *AdminHandler) Decide(c *gin.Context) {
	v, ok := requireViewer(c)
	if !ok {
		return
	}
	var req decisionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	decision, _ := models.ParseApprovalStatus(req.Decision)
	profile, err := h.approvals.Decide(requestContext(c), c.Param("id"), decision, v.UserID)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// GET /api/admin/audit?user_id=&action=&result=&resource=&since=&until=&page=&per_page=
func (h *AdminHandler) ListAudit(c *gin.Context) {
	filters := services.AuditFilters{
		UserID:   strings.TrimSpace(c.Query("user_id")),
		Action:   strings.TrimSpace(c.Query("action")),
		Result:   strings.TrimSpace(c.Query("result")),
		Resource: strings.TrimSpace(c.Query("resource")),
	}
	for key, target := range map[string]**time.Time{"since": &filters.Since, "until": &filters.Until} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.NewBadRequest(key+" must be an RFC3339 timestamp"))
			return
		}
		*target = &parsed
	}

	opts := services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "per_page", 50),
		Filters:  filters,
	}
	logs, total, err := h.audit.List(requestContext(c), opts)
	if err != nil {
		renderServiceError(c, err)
		return
	}
	page, perPage := pageBounds(opts.Page, opts.PageSize)
	response.SuccessWithMeta(c, http.StatusOK, logs, response.NewMeta(page, perPage, int(total)))
}

// pageBounds mirrors the clamping applied by the services so meta matches the returned slice.
func pageBounds(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}
	return page, perPage
}
