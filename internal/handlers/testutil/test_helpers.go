package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ud28188-create/codonyx.org/internal/api"
	"github.com/ud28188-create/codonyx.org/internal/app"
	iauth "github.com/ud28188-create/codonyx.org/internal/auth"
	"github.com/ud28188-create/codonyx.org/internal/auth/mfa"
	"github.com/ud28188-create/codonyx.org/internal/auth/providers"
	"github.com/ud28188-create/codonyx.org/internal/cache"
	sharedtestutil "github.com/ud28188-create/codonyx.org/internal/database/testutil"
	"github.com/ud28188-create/codonyx.org/internal/models"
	"github.com/ud28188-create/codonyx.org/internal/realtime"
	"github.com/ud28188-create/codonyx.org/internal/services"
	"github.com/ud28188-create/codonyx.org/internal/storage"
	"github.com/ud28188-create/codonyx.org/pkg/mail"
	"github.com/ud28188-create/codonyx.org/pkg/response"
)

// DefaultPassword is used for every account created through the helpers.
const DefaultPassword = "correct-horse"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	TOTP     *mfa.TOTPService
	Hub      *realtime.Hub
	Services *api.Services
	Mailer   *RecordingMailer
}

// RecordingMailer captures outbound email instead of delivering it.
type RecordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *RecordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of the delivered messages.
func (m *RecordingMailer) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// NewEnv provisions a fresh handler test environment with migrations and seed data applied.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithSeedData())

	cfg := &app.Config{
		App: app.AppConfig{
			Name:    "Codonyx",
			BaseURL: "https://codonyx.test",
		},
		Server: app.ServerConfig{
			MaxUploadBytes: 1 << 20,
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
			Session: app.SessionSettings{
				RefreshTTL:    24 * time.Hour,
				RefreshLength: 48,
			},
			MFA: app.MFASettings{
				Issuer: "Codonyx Test",
			},
		},
		Invites: app.InviteConfig{
			TTL:         72 * time.Hour,
			TokenLength: 24,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	store := cache.NewDatabaseStore(db)
	sessionSvc, err := iauth.NewSessionService(db, jwtSvc, cfg.Auth.SessionServiceConfig(iauth.NewSessionCache(store)))
	require.NoError(t, err)

	local, err := providers.NewLocalProvider(db, cfg.Auth.LocalProviderConfig())
	require.NoError(t, err)

	totp, err := mfa.NewTOTPService(db, bytes.Repeat([]byte{0x42}, 32), mfa.WithIssuer(cfg.Auth.MFA.Issuer))
	require.NoError(t, err)

	files, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)

	hub := realtime.NewHub()
	t.Cleanup(hub.Close)

	mailer := &RecordingMailer{}
	svc, err := api.NewServices(db, cfg, hub, files, mailer)
	require.NoError(t, err)

	router, err := api.NewRouter(api.Dependencies{
		DB:       db,
		Config:   cfg,
		JWT:      jwtSvc,
		Sessions: sessionSvc,
		Local:    local,
		TOTP:     totp,
		Hub:      hub,
		Cache:    store,
		Files:    files,
		Services: svc,
	})
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		TOTP:     totp,
		Hub:      hub,
		Services: svc,
		Mailer:   mailer,
	}
}

// CreateAdmin provisions an administrator with a random email and returns the record.
func (e *Env) CreateAdmin() *models.User {
	e.T.Helper()

	user, err := e.Services.Setup.CreateAdmin(context.Background(), services.CreateAdminInput{
		Email:    "admin-" + uuid.NewString()[:8] + "@example.com",
		Password: DefaultPassword,
	})
	require.NoError(e.T, err)
	return user
}

// IssueInvite mints an invite and returns its plaintext token.
func (e *Env) IssueInvite() string {
	e.T.Helper()

	issued, err := e.Services.Invites.Create(context.Background(), services.CreateInviteInput{Label: "test"}, "")
	require.NoError(e.T, err)
	return issued.Token
}

// CreateMember registers a member through an invite and moves the profile to status.
func (e *Env) CreateMember(userType models.UserType, status models.ApprovalStatus) *models.Profile {
	e.T.Helper()
	ctx := context.Background()

	email := string(userType) + "-" + uuid.NewString()[:8] + "@example.com"
	profile, err := e.Services.Registrations.Register(ctx, services.RegistrationInput{
		Email:       email,
		Password:    DefaultPassword,
		FullName:    "Member " + email,
		UserType:    userType,
		InviteToken: e.IssueInvite(),
		Fields:      services.ProfileFields{Location: "Berlin"},
	})
	require.NoError(e.T, err)

	if status != models.ApprovalPending {
		profile, err = e.Services.Approvals.Decide(ctx, profile.ID, status, "")
		require.NoError(e.T, err)
	}
	return profile
}

// TokenPair mirrors the handler login response payload.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	Roles      []string `json:"roles"`
	IsAdmin    bool     `json:"is_admin"`
	MFAEnabled bool     `json:"mfa_enabled"`
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Tokens TokenPair   `json:"tokens"`
	User   UserPayload `json:"user"`
}

// Login authenticates using the local provider and returns the issued token pair.
func (e *Env) Login(email, password string) LoginResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Tokens.AccessToken)
	require.NotEmpty(e.T, result.Tokens.RefreshToken)
	require.Equal(e.T, email, result.User.Email)

	return result
}

// LoginAs signs in as the owner of profile and returns the access token.
func (e *Env) LoginAs(profile *models.Profile) string {
	e.T.Helper()
	return e.Login(profile.Email, DefaultPassword).Tokens.AccessToken
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// ErrorCode returns the error code from a failed response.
func ErrorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	resp := DecodeResponse(t, w)
	require.False(t, resp.Success, w.Body.String())
	require.NotNil(t, resp.Error, w.Body.String())
	return resp.Error.Code
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	buf := bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return e.serve(req, token)
}

// FormFile describes a file part for Multipart.
type FormFile struct {
	Field    string
	Filename string
	Content  []byte
}

// Multipart sends a multipart/form-data request with the given fields and files.
func (e *Env) Multipart(method, path string, fields map[string][]string, files []FormFile, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for name, values := range fields {
		for _, value := range values {
			require.NoError(e.T, writer.WriteField(name, value))
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Filename)
		require.NoError(e.T, err)
		_, err = part.Write(file.Content)
		require.NoError(e.T, err)
	}
	require.NoError(e.T, writer.Close())

	req, err := http.NewRequest(method, path, &body)
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return e.serve(req, token)
}

func (e *Env) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
