// internal/workers/notifications/run-notification/handler.go
package runnotification

import (
	"context"
	"fmt"
	"strings"
	"time"

	awsclients "f1-previews/internal/common/aws"
	apperrors "f1-previews/internal/common/errors"
	"f1-previews/internal/common/logger"
	generatepreviews "f1-previews/internal/workers/generation/generate-previews"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"
)

const (
	TaskType = "run-notification"
)

// Handler announces finished generation runs over SES email and an SNS
// topic. A nil client disables its channel.
type Handler struct {
	config    *Config
	logger    logger.Logger
	sesClient awsclients.EmailSender
	snsClient awsclients.Publisher
	now       func() time.Time
}

func NewHandler(config *Config, sesClient awsclients.EmailSender, snsClient awsclients.Publisher, log logger.Logger) *Handler {
	return &Handler{
		config:    config,
		logger:    log.WithFields(map[string]interface{}{"taskType": TaskType}),
		sesClient: sesClient,
		snsClient: snsClient,
		now:       time.Now,
	}
}

// RunCompleted satisfies the orchestrator's notifier dependency.
func (h *Handler) RunCompleted(ctx context.Context, report *generatepreviews.Report) error {
	_, err := h.Execute(ctx, report)
	return err
}

// Execute sends the notification on every enabled channel. All channels are
// attempted; the first failure is returned.
func (h *Handler) Execute(ctx context.Context, report *generatepreviews.Report) (*Output, error) {
	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         h.now().UTC().Format(time.RFC3339),
	}

	if report == nil {
		return output, nil
	}
	if h.config.OnlyOnFailure && report.Status() == "ok" {
		output.Status = StatusSkipped
		return output, nil
	}

	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}

	subject := renderSubject(report)
	body := renderBody(report)

	var firstErr error
	if h.emailEnabled() {
		if err := h.sendEmail(ctx, subject, body); err != nil {
			h.logger.Error("email send failed", map[string]interface{}{
				"error": err.Error(),
				"runId": report.RunID,
			})
			firstErr = apperrors.NewNotificationSendFailedError(ChannelEmail, err)
		} else {
			output.Channels = append(output.Channels, ChannelEmail)
		}
	}

	if h.snsEnabled() {
		if err := h.publish(ctx, subject, body, report); err != nil {
			h.logger.Error("SNS publish failed", map[string]interface{}{
				"error": err.Error(),
				"runId": report.RunID,
			})
			if firstErr == nil {
				firstErr = apperrors.NewNotificationSendFailedError(ChannelSNS, err)
			}
		} else {
			output.Channels = append(output.Channels, ChannelSNS)
		}
	}

	switch {
	case firstErr != nil:
		output.Status = StatusFailed
	case len(output.Channels) > 0:
		output.Status = StatusSent
	}

	h.logger.Info("run notification processed", map[string]interface{}{
		"notificationId": output.NotificationID,
		"runId":          report.RunID,
		"status":         output.Status,
		"channels":       output.Channels,
	})
	return output, firstErr
}

func (h *Handler) emailEnabled() bool {
	return h.config.EmailEnabled && h.sesClient != nil && h.config.FromEmail != "" && len(h.config.To) > 0
}

func (h *Handler) snsEnabled() bool {
	return h.config.SNSEnabled && h.snsClient != nil && h.config.TopicARN != ""
}

func (h *Handler) sendEmail(ctx context.Context, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: h.config.To,
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(h.config.FromEmail),
	})
	return err
}

func (h *Handler) publish(ctx context.Context, subject, body string, report *generatepreviews.Report) error {
	_, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(body),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"mode":   {DataType: aws.String("String"), StringValue: aws.String(report.Mode)},
			"status": {DataType: aws.String("String"), StringValue: aws.String(report.Status())},
		},
	})
	return err
}

func renderSubject(report *generatepreviews.Report) string {
	circuit := report.Circuit
	if circuit == "" {
		circuit = "unknown circuit"
	}
	return fmt.Sprintf("F1 previews %s: %s %s (%s)", report.Mode, circuit, report.Season, report.Status())
}

func renderBody(report *generatepreviews.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s (%s)\n", report.RunID, report.Mode)
	fmt.Fprintf(&b, "Circuit: %s\nDate: %s\nSeason: %s\n", report.Circuit, report.Date, report.Season)
	if !report.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Duration: %s\n", report.FinishedAt.Sub(report.StartedAt).Round(time.Second))
	}

	if len(report.Drivers) > 0 {
		fmt.Fprintf(&b, "\nDrivers: %d generated, %d degraded, %d failed\n",
			report.Succeeded(), len(report.Degraded()), len(report.Failed()))
	}
	for _, o := range report.Failed() {
		fmt.Fprintf(&b, "  failed   %s: %s\n", o.Driver, o.Error)
	}
	for _, o := range report.Degraded() {
		fmt.Fprintf(&b, "  degraded %s: %s\n", o.Driver, o.DegradedReason)
	}

	if len(report.StepErrors) > 0 {
		b.WriteString("\nStep errors:\n")
		for _, se := range report.StepErrors {
			fmt.Fprintf(&b, "  %s: %s\n", se.Step, se.Error)
		}
	}
	return b.String()
}
