package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/bike-resale-api/internal/config"
)

// Stores are the DynamoDB-backed repositories, one per table in cfg.DynamoTables.
type Stores struct {
	Users *UserRepo
	Bikes *BikeRepo
}

// Open connects to DynamoDB, creates the users and bikes tables when missing
// and returns repositories bound to them.
func Open(ctx context.Context, cfg *config.Config) (*Stores, error) {
	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	Bootstrap(ctx, client, cfg.DynamoTables)
	return &Stores{
		Users: NewUserRepo(client, cfg.DynamoTables.Users),
		Bikes: NewBikeRepo(client, cfg.DynamoTables.Bikes),
	}, nil
}

// NewClient creates a DynamoDB client. Static credentials are used when an
// access key is configured; AWSEndpointURL points it at LocalStack.
func NewClient(ctx context.Context, cfg *config.Config) (*dynamodb.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(awsCfg, clientOptions(cfg)...), nil
}

func loadOptions(cfg *config.Config) []func(*awsconfig.LoadOptions) error {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretKey, ""),
		))
	}
	return opts
}

func clientOptions(cfg *config.Config) []func(*dynamodb.Options) {
	if cfg.AWSEndpointURL == "" {
		return nil
	}
	return []func(*dynamodb.Options){func(o *dynamodb.Options) {
		o.BaseEndpoint = aws.String(cfg.AWSEndpointURL)
	}}
}
