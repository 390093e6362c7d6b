package mailer

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	apperrors "github.com/allisson/identity/internal/errors"
)

// SESMailer implements Mailer using AWS SES.
type SESMailer struct {
	client      *ses.Client
	fromAddress string
}

// NewSESMailer creates a Mailer backed by AWS SES. Credentials and region come
// from the default AWS configuration chain.
func NewSESMailer(ctx context.Context, fromAddress string) (*SESMailer, error) {
	cfg, err := awsConfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to load aws config")
	}
	return &SESMailer{
		client:      ses.NewFromConfig(cfg),
		fromAddress: fromAddress,
	}, nil
}

// Send delivers the message via SES. Failures are reported as ErrUnavailable;
// callers that must not lose the message retry through their own machinery.
func (m *SESMailer) Send(ctx context.Context, message Message) error {
	body := &types.Body{}
	if message.Text != "" {
		body.Text = &types.Content{
			Data:    aws.String(message.Text),
			Charset: aws.String("UTF-8"),
		}
	}
	if message.HTML != "" {
		body.Html = &types.Content{
			Data:    aws.String(message.HTML),
			Charset: aws.String("UTF-8"),
		}
	}

	input := &ses.SendEmailInput{
		Source:      aws.String(m.fromAddress),
		Destination: &types.Destination{ToAddresses: []string{message.To}},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(message.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: body,
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return apperrors.Wrap(apperrors.ErrUnavailable, err.Error())
	}
	return nil
}
