package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESSettings configure Amazon SES delivery.
type SESSettings struct {
	Region  string
	From    string
	Timeout time.Duration
}

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesMailer struct {
	client  sesAPI
	from    string
	timeout time.Duration
}

// NewSESMailer loads the default AWS credential chain for the configured region.
func NewSESMailer(ctx context.Context, cfg SESSettings) (Mailer, error) {
	if strings.TrimSpace(cfg.From) == "" {
		return nil, errors.New("ses: from address is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var opts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}

	return newSESMailer(sesv2.NewFromConfig(awsCfg), cfg), nil
}

func newSESMailer(client sesAPI, cfg SESSettings) *sesMailer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &sesMailer{client: client, from: cfg.From, timeout: timeout}
}

func (m *sesMailer) Send(ctx context.Context, msg Message) error {
	from, recipients, err := validateMessage(msg, m.from)
	if err != nil {
		return err
	}

	body := &types.Body{
		Text: &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")},
	}
	if strings.TrimSpace(msg.HTML) != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination:      &types.Destination{ToAddresses: recipients},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(escapeHeader(msg.Subject)), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}

	ctx, cancel := withTimeout(ctx, m.timeout)
	defer cancel()

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("ses: send to %s: %w", strings.Join(recipients, ","), err)
	}
	return nil
}
