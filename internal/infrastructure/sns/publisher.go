package sns

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/bike-resale-api/internal/config"
	"github.com/bike-resale-api/internal/domain"
)

// EventPublisher publishes listing lifecycle events to an SNS topic.
type EventPublisher struct {
	client   *sns.Client
	topicARN string
}

func NewEventPublisher(cfg *config.Config) (*EventPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	var opts []func(*sns.Options)
	if cfg.AWSEndpointURL != "" {
		opts = append(opts, func(o *sns.Options) {
			o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
		})
	}
	return &EventPublisher{client: sns.NewFromConfig(awsCfg, opts...), topicARN: cfg.ListingEventsTopicARN}, nil
}

// Publish sends ev as JSON with its type as a message attribute for
// subscription filtering.
func (p *EventPublisher) Publish(ctx context.Context, ev domain.ListingEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(b)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"type": {DataType: aws.String("String"), StringValue: aws.String(ev.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
