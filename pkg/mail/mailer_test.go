package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/smtp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailerValidatesConfig(t *testing.T) {
	_, err := NewSMTPMailer(SMTPSettings{Enabled: true})
	require.ErrorContains(t, err, "host is required")

	_, err = NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com"})
	require.ErrorContains(t, err, "port is required")

	m, err := NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 587})
	require.NoError(t, err)
	require.Positive(t, m.(*smtpMailer).cfg.Timeout)
}

func TestDisabledProviders(t *testing.T) {
	m, err := NewSMTPMailer(SMTPSettings{})
	require.NoError(t, err)
	require.ErrorIs(t, m.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrDisabled)

	m, err = New(context.Background(), Settings{Provider: "disabled"})
	require.NoError(t, err)
	require.ErrorIs(t, m.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrDisabled)

	_, err = New(context.Background(), Settings{Provider: "carrier-pigeon"})
	require.Error(t, err)
}

func TestComposeMessagePlainText(t *testing.T) {
	body, err := composeMessage("from@example.com", []string{"to@example.com"}, Message{Subject: "Hi\r\nthere", Text: "Body"})
	require.NoError(t, err)

	content := string(body)
	require.Contains(t, content, "From: from@example.com\r\n")
	require.Contains(t, content, "Subject: Hi  there\r\n")
	require.Contains(t, content, "Content-Type: text/plain; charset=UTF-8")
	require.True(t, strings.HasSuffix(content, "\r\n\r\nBody"))
}

func TestComposeMessageAlternative(t *testing.T) {
	body, err := composeMessage("from@example.com", []string{"to@example.com"}, Message{Subject: "Hi", Text: "plain", HTML: "<p>rich</p>"})
	require.NoError(t, err)

	content := string(body)
	require.Contains(t, content, "multipart/alternative; boundary=")
	require.Contains(t, content, "plain")
	require.Contains(t, content, "<p>rich</p>")
}

type recordingClient struct {
	from  string
	rcpts []string
	data  strings.Builder
	quit  bool
}

func (c *recordingClient) Mail(from string) error { c.from = from; return nil }
func (c *recordingClient) Rcpt(to string) error { c.rcpts = append(c.rcpts, to); return nil }
func (c *recordingClient) Data() (io.WriteCloser, error) {
	return nopWriteCloser{&c.data}, nil
}
func (c *recordingClient) Quit() error { c.quit = true; return nil }
func (c *recordingClient) Close() error { return nil }
func (c *recordingClient) StartTLS(*tls.Config) error { return nil }
func (c *recordingClient) Auth(smtp.Auth) error { return nil }
func (c *recordingClient) Extension(string) (bool, string) { return false, "" }

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func TestSMTPMailerSendUsesEnvelopeAddresses(t *testing.T) {
	client := &recordingClient{}
	server, peer := net.Pipe()
	defer peer.Close()

	m := &smtpMailer{
		cfg: SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 25, From: "Codonyx <noreply@codonyx.org>"},
		dialFn: func(context.Context, SMTPSettings) (net.Conn, smtpClient, error) {
			return server, client, nil
		},
		authFn: func(smtpClient, SMTPSettings) error { return nil },
	}

	err := m.Send(context.Background(), Message{
		To:      []string{"r@example.com", "R@example.com", " "},
		Subject: "Hello",
		Text:    "body",
	})
	require.NoError(t, err)
	require.Equal(t, "noreply@codonyx.org", client.from)
	require.Equal(t, []string{"r@example.com"}, client.rcpts)
	require.True(t, client.quit)
	require.Contains(t, client.data.String(), "Subject: Hello")
}

func TestSMTPMailerRejectsInvalidRecipients(t *testing.T) {
	m, err := NewSMTPMailer(SMTPSettings{Enabled: true, Host: "smtp.example.com", Port: 25, From: "noreply@codonyx.org"})
	require.NoError(t, err)

	require.ErrorContains(t, m.Send(context.Background(), Message{}), "recipient")
	require.ErrorContains(t, m.Send(context.Background(), Message{To: []string{"not-an-address"}}), "invalid recipient")
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailerBuildsSimpleMessage(t *testing.T) {
	client := &fakeSES{}
	m := newSESMailer(client, SESSettings{From: "noreply@codonyx.org"})

	err := m.Send(context.Background(), Message{To: []string{"r@example.com"}, Subject: "Hi", Text: "plain", HTML: "<b>rich</b>"})
	require.NoError(t, err)
	require.NotNil(t, client.input)
	require.Equal(t, "noreply@codonyx.org", aws.ToString(client.input.FromEmailAddress))
	require.Equal(t, []string{"r@example.com"}, client.input.Destination.ToAddresses)
	require.Equal(t, "<b>rich</b>", aws.ToString(client.input.Content.Simple.Body.Html.Data))

	client.err = errors.New("throttled")
	require.ErrorContains(t, m.Send(context.Background(), Message{To: []string{"r@example.com"}}), "throttled")
}

func TestInstrumentPassesThroughErrors(t *testing.T) {
	inner := newSESMailer(&fakeSES{err: errors.New("down")}, SESSettings{From: "noreply@codonyx.org"})
	m := Instrument(inner, "ses")
	require.Error(t, m.Send(context.Background(), Message{To: []string{"r@example.com"}}))
}
