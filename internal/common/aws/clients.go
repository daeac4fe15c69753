// internal/common/aws/clients.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// Clients holds the messaging clients used for advisory delivery. Both are
// built from a single shared AWS configuration.
type Clients struct {
	SES *SESClient
	SNS *SNSClient
}

func NewClients(ctx context.Context, region string) (*Clients, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &Clients{
		SES: &SESClient{client: ses.NewFromConfig(cfg)},
		SNS: &SNSClient{client: sns.NewFromConfig(cfg)},
	}, nil
}

// SESClient sends advisory emails.
type SESClient struct {
	client *ses.Client
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input, optFns...)
}

// SNSClient publishes advisory SMS messages.
type SNSClient struct {
	client *sns.Client
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}
