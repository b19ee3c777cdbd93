package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/bike-resale-api/internal/domain"
)

// BikeRepo provides typed DynamoDB operations for the bikes table.
type BikeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBikeRepo(client *dynamodb.Client, tableName string) *BikeRepo {
	return &BikeRepo{client: client, tableName: tableName}
}

func (r *BikeRepo) Put(ctx context.Context, b *domain.Bike) error {
	b.Kind = domain.BikeKind
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal bike: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BikeRepo) Get(ctx context.Context, bikeID string) (*domain.Bike, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("bike_id", bikeID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("bike %s: %w", bikeID, domain.ErrNotFound)
	}
	var b domain.Bike
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Query returns every listing matching f, newest first. It walks the
// kind-bike_id GSI in descending order with f applied as a FilterExpression.
func (r *BikeRepo) Query(ctx context.Context, f domain.ListingFilter) ([]domain.Bike, error) {
	fe := buildFilterExpr(f)
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexBikesByKind),
		KeyConditionExpression:    aws.String("#pk = :pk"),
		ExpressionAttributeNames:  mergeNames(map[string]string{"#pk": "kind"}, fe.Names),
		ExpressionAttributeValues: mergeValues(map[string]types.AttributeValue{":pk": &types.AttributeValueMemberS{Value: domain.BikeKind}}, fe.Values),
		ScanIndexForward:          aws.Bool(false),
	}
	if fe.Expr != "" {
		input.FilterExpression = aws.String(fe.Expr)
	}
	return r.collect(ctx, input)
}

// ListByOwner returns the owner's listings, newest first.
func (r *BikeRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Bike, error) {
	return r.collect(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexBikesByOwner),
		KeyConditionExpression:    aws.String("listed_by = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":uid": &types.AttributeValueMemberS{Value: ownerID}},
		ScanIndexForward:          aws.Bool(false),
	})
}

// Update sets the given attributes and stamps updated_at.
func (r *BikeRepo) Update(ctx context.Context, bikeID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now().UTC()
	ue, err := buildUpdateExpr(updates)
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("bike_id", bikeID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(bike_id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if isConditionFailed(err) {
		return fmt.Errorf("bike %s: %w", bikeID, domain.ErrNotFound)
	}
	return err
}

func (r *BikeRepo) Delete(ctx context.Context, bikeID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("bike_id", bikeID),
		ConditionExpression: aws.String("attribute_exists(bike_id)"),
	})
	if isConditionFailed(err) {
		return fmt.Errorf("bike %s: %w", bikeID, domain.ErrNotFound)
	}
	return err
}

func (r *BikeRepo) collect(ctx context.Context, input *dynamodb.QueryInput) ([]domain.Bike, error) {
	bikes := []domain.Bike{}
	p := dynamodb.NewQueryPaginator(r.client, input)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var page []domain.Bike
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			return nil, err
		}
		bikes = append(bikes, page...)
	}
	return bikes, nil
}
