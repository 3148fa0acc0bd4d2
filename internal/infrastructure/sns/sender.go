package sns

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/flightdesk-api/internal/config"
	"github.com/flightdesk-api/internal/domain"
)

// Publisher is the SNS operation LinkSender needs. *sns.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewClient(awsCfg aws.Config, cfg *config.Config) *sns.Client {
	return sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		o.Region = cfg.SNSRegion
		if cfg.AWSEndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		}
	})
}

// LinkSender publishes magic links to an SNS topic. A subscriber (mail
// relay, chat bot) delivers them; the recipient travels as a message attribute.
type LinkSender struct {
	client   Publisher
	topicARN string
}

func NewLinkSender(client Publisher, topicARN string) *LinkSender {
	return &LinkSender{client: client, topicARN: topicARN}
}

func (s *LinkSender) SendLink(ctx context.Context, d domain.LinkDelivery) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Subject:  aws.String("magic-link"),
		Message:  aws.String(d.URL),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"email": {DataType: aws.String("String"), StringValue: aws.String(d.Email)},
			"expires_at": {
				DataType:    aws.String("String"),
				StringValue: aws.String(d.ExpiresAt.UTC().Format(time.RFC3339)),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("publish magic link: %w", err)
	}
	return nil
}
