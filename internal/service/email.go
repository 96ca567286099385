package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"QH_quranhabits/pkg/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

type EmailConfig struct {
	Region     string `yaml:"region"`
	FromEmail  string `yaml:"fromEmail"`
	FromName   string `yaml:"fromName"`
	AppBaseURL string `yaml:"appBaseUrl"`
}

// EmailService sends account emails through Amazon SES. Without a sender
// address it is disabled and only logs what it would have sent.
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

func NewEmailService(ctx context.Context, cfg EmailConfig) (*EmailService, error) {
	appBaseURL := strings.TrimRight(cfg.AppBaseURL, "/")

	if cfg.FromEmail == "" {
		logger.Logger().Info("Email service disabled: no sender address configured")
		return &EmailService{appBaseURL: appBaseURL}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.Logger().Info("Email service enabled",
		zap.String("from", cfg.FromEmail),
		zap.String("region", cfg.Region),
	)

	return &EmailService{
		client:     sesv2.NewFromConfig(awsCfg),
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

func (s *EmailService) resetLink(token string) string {
	return fmt.Sprintf("%s/auth/reset-password?token=%s", s.appBaseURL, url.QueryEscape(token))
}

func (s *EmailService) SendPasswordReset(ctx context.Context, to, name, token string) error {
	if !s.enabled {
		logger.Logger().Info("Skipping password reset email (service disabled)", zap.String("to", to))
		return nil
	}

	link := s.resetLink(token)
	subject := "Reset your password"
	textBody := fmt.Sprintf(`Assalamu alaikum %s,

We received a request to reset the password of your account.

Open the link below to choose a new password:
%s

The link expires in one hour. If you did not request a reset you can ignore this email.
`, name, link)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<p>Assalamu alaikum %s,</p>
	<p>We received a request to reset the password of your account.</p>
	<p><a href="%s">Choose a new password</a></p>
	<p style="font-size: 12px; color: #666;">The link expires in one hour. If you did not request a reset you can ignore this email.</p>
</body>
</html>
`, name, link)

	return s.send(ctx, to, subject, htmlBody, textBody)
}

func (s *EmailService) send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	from := s.fromEmail
	if s.fromName != "" {
		from = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(from),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}

	fields := []zap.Field{zap.String("to", to), zap.String("subject", subject)}
	if result.MessageId != nil {
		fields = append(fields, zap.String("message_id", *result.MessageId))
	}
	logger.Logger().Info("Email sent", fields...)
	return nil
}
