// internal/workers/advisory/notify-advisory/handler.go
package notifyadvisory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agrichain/internal/advisor/catalog"
	"agrichain/internal/common/camunda"
	"agrichain/internal/common/errors"
	"agrichain/internal/common/logger"
	"agrichain/internal/common/metrics"
	"agrichain/internal/common/validation"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "notify-advisory"
)

// Define interfaces for mocking
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config        *Config
	sesClient     SESService
	snsClient     SNSService
	errorHandler  *errors.ErrorHandler
	completeRetry *camunda.RetryConfig
	logger        logger.Logger
	now           func() time.Time
}

func NewHandler(config *Config, sesClient SESService, snsClient SNSService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:        config,
		sesClient:     sesClient,
		snsClient:     snsClient,
		errorHandler:  errors.NewErrorHandler(log),
		completeRetry: camunda.DefaultRetryConfig,
		logger:        log,
		now:           time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewInvalidRequestError("parse input: "+err.Error()))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job.Key, output, h.completeRetry); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey":   job.Key,
			"channels": output.Channels,
			"error":    err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// execute sends each requested channel independently. The job fails only
// when every attempted channel failed; a partial delivery completes with the
// failed channels listed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	messageID := uuid.New().String()
	sentAt := h.now().UTC().Format(time.RFC3339)
	var sent, failed []string
	var firstErr error

	attempt := func(channel string, send func() error) {
		if err := send(); err != nil {
			h.logger.Warn("advisory notification channel failed", map[string]interface{}{
				"requestId": input.RequestID,
				"channel":   channel,
				"error":     err.Error(),
			})
			failed = append(failed, channel)
			if firstErr == nil {
				firstErr = errors.NewNotificationSendFailedError(channel, err)
			}
			return
		}
		sent = append(sent, channel)
	}

	if wantsChannel(input.Channel, ChannelSMS) && h.config.SMSEnabled && input.Phone != "" {
		attempt(ChannelSMS, func() error { return h.sendSMS(ctx, input.Phone, smsText(input)) })
	}
	if wantsChannel(input.Channel, ChannelEmail) && h.config.EmailEnabled && input.Email != "" {
		subject, body := emailText(input)
		attempt(ChannelEmail, func() error { return h.sendEmail(ctx, input.Email, subject, body) })
	}

	if len(sent) == 0 && firstErr != nil {
		return nil, firstErr
	}

	status := StatusDisabled
	switch {
	case len(failed) > 0:
		status = StatusPartial
	case len(sent) > 0:
		status = StatusSent
	}
	h.logger.Info("advisory notification processed", map[string]interface{}{
		"requestId": input.RequestID,
		"messageId": messageID,
		"status":    status,
		"channels":  sent,
		"failed":    failed,
	})

	return &Output{
		MessageID:      messageID,
		Status:         status,
		Channels:       sent,
		FailedChannels: failed,
		SentAt:         sentAt,
	}, nil
}

func validateInput(input *Input) error {
	var problems []string

	switch input.Channel {
	case ChannelSMS, ChannelEmail, ChannelBoth:
	default:
		problems = append(problems, fmt.Sprintf("channel must be one of sms, email, both; got %q", input.Channel))
	}
	if wantsChannel(input.Channel, ChannelSMS) && input.Phone != "" && !validation.ValidatePhone(input.Phone) {
		problems = append(problems, "farmerPhone must be in E.164 format")
	}
	if wantsChannel(input.Channel, ChannelEmail) && input.Email != "" && !validation.ValidateEmail(input.Email) {
		problems = append(problems, "farmerEmail is not a valid address")
	}
	if input.BestMarket == "" || input.HarvestWindow == "" {
		problems = append(problems, "bestMarket and harvestWindow are required")
	}

	if len(problems) > 0 {
		return errors.NewInvalidRequestError(strings.Join(problems, "; "))
	}
	return nil
}

func wantsChannel(requested, channel string) bool {
	return requested == channel || requested == ChannelBoth
}

func cropName(input *Input) string {
	if p, err := catalog.Profile(input.CropType); err == nil {
		return p.DisplayName
	}
	return catalog.Title(input.CropType)
}

// smsText fits the advisory headline into a single message.
func smsText(input *Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "AgriChain: Harvest %s %s (%s). ", cropName(input), input.HarvestWindow, strings.ReplaceAll(input.Urgency, "_", " "))
	fmt.Fprintf(&b, "Sell at %s, est. profit Rs %.0f. ", input.BestMarket, input.NetProfit)
	fmt.Fprintf(&b, "Spoilage risk %s (%.1f%%).", input.RiskLevel, input.RiskPct)
	if input.TopAction != "" {
		fmt.Fprintf(&b, " Do first: %s.", input.TopAction)
	}
	return b.String()
}

func emailText(input *Input) (string, string) {
	crop := cropName(input)
	subject := fmt.Sprintf("Harvest advisory: %s at %s", crop, input.BestMarket)

	var b strings.Builder
	fmt.Fprintf(&b, "Your %s harvest advisory\n\n", crop)
	fmt.Fprintf(&b, "Harvest window: %s\n", input.HarvestWindow)
	fmt.Fprintf(&b, "Best market: %s (estimated net profit ₹%.0f)\n", input.BestMarket, input.NetProfit)
	fmt.Fprintf(&b, "Spoilage risk: %s (%.1f%%)\n", input.RiskLevel, input.RiskPct)
	if input.TopAction != "" {
		fmt.Fprintf(&b, "Top preservation action: %s\n", input.TopAction)
	}
	fmt.Fprintf(&b, "Confidence: %.0f%%\n\nReference: %s\n", input.Confidence, input.RequestID)
	return subject, b.String()
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
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

func (h *Handler) sendSMS(ctx context.Context, to, message string) error {
	input := &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	}
	if h.config.SenderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(h.config.SenderID)},
		}
	}
	_, err := h.snsClient.Publish(ctx, input)
	return err
}
