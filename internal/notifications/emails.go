package notifications

import (
	"bytes"
	"context"
	"embed"
	"errors"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"unicode/utf8"

	"github.com/ud28188-create/codonyx.org/pkg/mail"
)

// BioPreviewLength bounds the sender bio quoted in connection emails.
const BioPreviewLength = 200

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
)

// Emailer renders and sends member-facing emails.
type Emailer struct {
	mailer  mail.Mailer
	appName string
	baseURL string
}

// NewEmailer builds an Emailer. A nil mailer turns every send into mail.ErrDisabled.
func NewEmailer(mailer mail.Mailer, appName, baseURL string) *Emailer {
	if strings.TrimSpace(appName) == "" {
		appName = "Codonyx"
	}
	return &Emailer{
		mailer:  mailer,
		appName: appName,
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
	}
}

// Link joins path onto the configured base URL.
func (e *Emailer) Link(path string) string {
	return e.baseURL + "/" + strings.TrimLeft(path, "/")
}

// ConnectionRequest describes the sender of a new connection request.
type ConnectionRequest struct {
	RecipientEmail     string
	RecipientName      string
	SenderName         string
	SenderHeadline     string
	SenderOrganisation string
	SenderBio          string
}

type connectionRequestView struct {
	ConnectionRequest
	AppName        string
	ConnectionsURL string
}

// ConnectionRequested notifies the receiver of a pending connection.
func (e *Emailer) ConnectionRequested(ctx context.Context, req ConnectionRequest) error {
	if e == nil {
		return mail.ErrDisabled
	}
	req.SenderBio = TruncateBio(req.SenderBio, BioPreviewLength)
	view := connectionRequestView{
		ConnectionRequest: req,
		AppName:           e.appName,
		ConnectionsURL:    e.Link("/connections"),
	}
	return e.send(ctx, req.RecipientEmail,
		req.SenderName+" wants to connect with you on "+e.appName,
		"connection_request", view)
}

// ApprovalDecision describes a moderation outcome for a registrant.
type ApprovalDecision struct {
	Email    string
	FullName string
	Approved bool
}

type approvalDecisionView struct {
	ApprovalDecision
	AppName  string
	LoginURL string
}

// ApprovalDecided tells a registrant whether their profile was approved.
func (e *Emailer) ApprovalDecided(ctx context.Context, decision ApprovalDecision) error {
	if e == nil {
		return mail.ErrDisabled
	}
	subject := "Your " + e.appName + " registration was not approved"
	if decision.Approved {
		subject = "Welcome to " + e.appName + ": your profile is approved"
	}
	view := approvalDecisionView{
		ApprovalDecision: decision,
		AppName:          e.appName,
		LoginURL:         e.Link("/auth"),
	}
	return e.send(ctx, decision.Email, subject, "approval_decision", view)
}

func (e *Emailer) send(ctx context.Context, to, subject, name string, view any) error {
	if e.mailer == nil {
		return mail.ErrDisabled
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("notifications: recipient email is required")
	}

	var html, text bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", view); err != nil {
		return err
	}
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", view); err != nil {
		return err
	}

	return e.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		Text:    text.String(),
		HTML:    html.String(),
	})
}

// TruncateBio cuts s to limit runes and appends "..." when anything was removed.
func TruncateBio(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}
