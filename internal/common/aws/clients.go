// internal/common/aws/clients.go
package aws

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSClient publishes SMS messages. It satisfies notification.SNSService.
type SNSClient struct {
	client *sns.Client
}

func (s *SNSClient) Publish(ctx context.Context, input *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return s.client.Publish(ctx, input, optFns...)
}

// SESClient sends email. It satisfies notification.SESService.
type SESClient struct {
	client *ses.Client
}

func (s *SESClient) SendEmail(ctx context.Context, input *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return s.client.SendEmail(ctx, input, optFns...)
}

// Clients holds the SNS and SES clients built from one shared AWS config.
type Clients struct {
	SNS *SNSClient
	SES *SESClient
}

// NewClients loads the default credential chain for region.
func NewClients(ctx context.Context, region string) (*Clients, error) {
	if region == "" {
		return nil, fmt.Errorf("aws region is empty")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Clients{
		SNS: &SNSClient{client: sns.NewFromConfig(cfg)},
		SES: &SESClient{client: ses.NewFromConfig(cfg)},
	}, nil
}
